package osstypes

import "encoding/xml"

// DeleteObjectsRequest is the XML request for DeleteMultipleObjects
type DeleteObjectsRequest struct {
	XMLName xml.Name            `xml:"Delete"`
	Quiet   bool                `xml:"Quiet"`
	Objects []DeleteObjectEntry `xml:"Object"`
}

// DeleteObjectEntry represents an object to delete
type DeleteObjectEntry struct {
	Key string `xml:"Key"`
}

// DeleteObjectsResult is the XML response for DeleteMultipleObjects
type DeleteObjectsResult struct {
	XMLName      xml.Name        `xml:"DeleteResult"`
	EncodingType *string         `xml:"EncodingType"`
	Deleted      []DeletedObject `xml:"Deleted"`
}

// DeletedObject represents a successfully deleted object
type DeletedObject struct {
	Key string `xml:"Key"`
}
