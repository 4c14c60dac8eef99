// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package osstypes

import "encoding/xml"

// Optional elements are pointers so that an absent element and an empty one
// stay distinguishable after decoding.

// InitiateMultipartUploadResult is the response for InitiateMultipartUpload
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// CompleteMultipartUpload is the request body for CompleteMultipartUpload
type CompleteMultipartUpload struct {
	XMLName xml.Name       `xml:"CompleteMultipartUpload"`
	Parts   []CompletePart `xml:"Part"`
}

// CompletePart represents a part in the complete request
type CompletePart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

// CompleteMultipartUploadResult is the response for CompleteMultipartUpload
type CompleteMultipartUploadResult struct {
	XMLName      xml.Name `xml:"CompleteMultipartUploadResult"`
	EncodingType *string  `xml:"EncodingType"`
	Location     string   `xml:"Location"`
	Bucket       string   `xml:"Bucket"`
	Key          string   `xml:"Key"`
	ETag         string   `xml:"ETag"`
}

// CopyPartResult is the response for UploadPartCopy
type CopyPartResult struct {
	XMLName      xml.Name `xml:"CopyPartResult"`
	LastModified string   `xml:"LastModified"`
	ETag         string   `xml:"ETag"`
}

// ListPartsResult is the response for ListParts
type ListPartsResult struct {
	XMLName              xml.Name   `xml:"ListPartsResult"`
	Bucket               string     `xml:"Bucket"`
	Key                  string     `xml:"Key"`
	UploadID             string     `xml:"UploadId"`
	EncodingType         *string    `xml:"EncodingType"`
	PartNumberMarker     *string    `xml:"PartNumberMarker"`
	NextPartNumberMarker *string    `xml:"NextPartNumberMarker"`
	MaxParts             *string    `xml:"MaxParts"`
	IsTruncated          *string    `xml:"IsTruncated"`
	Parts                []PartInfo `xml:"Part"`
}

// PartInfo represents a part in list responses
type PartInfo struct {
	PartNumber   string `xml:"PartNumber"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         string `xml:"Size"`
}

// ListMultipartUploadsResult is the response for ListMultipartUploads
type ListMultipartUploadsResult struct {
	XMLName            xml.Name          `xml:"ListMultipartUploadsResult"`
	Bucket             string            `xml:"Bucket"`
	EncodingType       *string           `xml:"EncodingType"`
	KeyMarker          *string           `xml:"KeyMarker"`
	UploadIDMarker     *string           `xml:"UploadIdMarker"`
	NextKeyMarker      *string           `xml:"NextKeyMarker"`
	NextUploadIDMarker *string           `xml:"NextUploadIdMarker"`
	Delimiter          *string           `xml:"Delimiter"`
	Prefix             *string           `xml:"Prefix"`
	MaxUploads         *string           `xml:"MaxUploads"`
	IsTruncated        *string           `xml:"IsTruncated"`
	Uploads            []MultipartUpload `xml:"Upload"`
	CommonPrefixes     []CommonPrefix    `xml:"CommonPrefixes"`
}

// MultipartUpload represents an in-progress multipart upload
type MultipartUpload struct {
	Key       string `xml:"Key"`
	UploadID  string `xml:"UploadId"`
	Initiated string `xml:"Initiated"`
}

// CommonPrefix is a key prefix rolled up by a delimiter.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}
