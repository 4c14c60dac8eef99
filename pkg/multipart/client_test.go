// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osserr"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/osstypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBucket = "rubysdk-bucket"
	testObject = "rubysdk-object"
)

type sent struct {
	req  *Request
	body []byte
}

// fakeTransport records every request and answers with respond.
type fakeTransport struct {
	mu       sync.Mutex
	requests []sent
	respond  func(req *Request) (*Response, error)
	// skipBody leaves the request body unread.
	skipBody bool
}

func (f *fakeTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	var body []byte
	if req.Body != nil && !f.skipBody {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, sent{req: req, body: body})
	f.mu.Unlock()
	if f.respond == nil {
		return &Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}
	return f.respond(req)
}

func (f *fakeTransport) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func xmlResponse(status int, v any) func(*Request) (*Response, error) {
	return func(*Request) (*Response, error) {
		body, err := xml.Marshal(v)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: status, Header: http.Header{}, Body: body}, nil
	}
}

func errorResponse(status int, code, message string) func(*Request) (*Response, error) {
	return xmlResponse(status, osserr.ErrorResponse{Code: code, Message: message, RequestID: "0000"})
}

func etagResponse(etag string) func(*Request) (*Response, error) {
	return func(*Request) (*Response, error) {
		h := http.Header{}
		h.Set("ETag", etag)
		return &Response{StatusCode: http.StatusOK, Header: h}, nil
	}
}

func TestBegin(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: xmlResponse(http.StatusOK, osstypes.InitiateMultipartUploadResult{
		Bucket:   testBucket,
		Key:      testObject,
		UploadID: "zyx",
	})}
	c := NewClient(ft)

	id, err := c.Begin(context.Background(), testBucket, testObject, &BeginOptions{
		Metas:       map[string]string{"year": "2015", "people": "mary"},
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "zyx", id)

	got := ft.last(t)
	assert.Equal(t, http.MethodPost, got.req.Method)
	assert.Equal(t, "/"+testObject, got.req.Path())
	assert.Equal(t, "uploads=", got.req.Query.Encode())
	assert.Equal(t, "2015", got.req.Header.Get("x-oss-meta-year"))
	assert.Equal(t, "mary", got.req.Header.Get("x-oss-meta-people"))
	assert.Equal(t, "text/plain", got.req.Header.Get("Content-Type"))
	assert.Empty(t, got.body)
}

func TestBeginErrors(t *testing.T) {
	t.Parallel()

	t.Run("service error", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: errorResponse(http.StatusBadRequest, "InvalidArgument", "Invalid argument.")}
		_, err := NewClient(ft).Begin(context.Background(), testBucket, testObject, nil)
		require.Error(t, err)
		assert.Equal(t, "Invalid argument.", err.Error())
		assert.True(t, osserr.HasCode(err, osserr.CodeInvalidArgument))
	})

	t.Run("missing upload id", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: xmlResponse(http.StatusOK, osstypes.InitiateMultipartUploadResult{Bucket: testBucket})}
		_, err := NewClient(ft).Begin(context.Background(), testBucket, testObject, nil)
		assert.True(t, osserr.IsDecodeError(err))
	})

	t.Run("missing object", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{}
		_, err := NewClient(ft).Begin(context.Background(), testBucket, "", nil)
		assert.ErrorIs(t, err, osserr.ErrInvalidArgument)
		assert.Zero(t, ft.count())
	})
}

func TestUploadPart(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: etagResponse("etag_1")}
	c := NewClient(ft)

	p, err := c.UploadPart(context.Background(), testBucket, testObject, "xxxyyyzzz", 1,
		func(w io.Writer) error {
			for i := 0; i < 10; i++ {
				if _, err := io.WriteString(w, "hello world\n"); err != nil {
					return err
				}
			}
			return nil
		}, nil)
	require.NoError(t, err)
	assert.Equal(t, Part{Number: 1, ETag: "etag_1"}, p)

	got := ft.last(t)
	assert.Equal(t, http.MethodPut, got.req.Method)
	assert.Equal(t, "1", got.req.Query.Get("partNumber"))
	assert.Equal(t, "xxxyyyzzz", got.req.Query.Get("uploadId"))
	assert.Equal(t, int64(-1), got.req.ContentLength)
	assert.Equal(t, strings.Repeat("hello world\n", 10), string(got.body))
}

func TestUploadPartKnownSize(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: etagResponse(`"abc"`)}
	data := []byte("0123456789")
	p, err := NewClient(ft).UploadPart(context.Background(), testBucket, "dir/a b", "id", 7,
		ReaderProducer(bytes.NewReader(data)), &UploadPartOptions{Size: int64(len(data)), ContentMD5: "md5"})
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, p.ETag)

	got := ft.last(t)
	assert.Equal(t, int64(10), got.req.ContentLength)
	assert.Equal(t, "md5", got.req.Header.Get("Content-MD5"))
	assert.Equal(t, "/dir/a%20b", got.req.Path())
	assert.Equal(t, data, got.body)
}

func TestUploadPartFailures(t *testing.T) {
	t.Parallel()

	t.Run("producer error wins", func(t *testing.T) {
		t.Parallel()
		diskErr := errors.New("disk gone")
		ft := &fakeTransport{respond: etagResponse("etag")}
		_, err := NewClient(ft).UploadPart(context.Background(), testBucket, testObject, "id", 1,
			func(w io.Writer) error {
				_, _ = w.Write([]byte("partial"))
				return diskErr
			}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, diskErr)
	})

	t.Run("body left unread", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: etagResponse("etag"), skipBody: true}
		p, err := NewClient(ft).UploadPart(context.Background(), testBucket, testObject, "id", 2,
			ReaderProducer(bytes.NewReader(make([]byte, 1<<20))), nil)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Number)
	})

	t.Run("missing etag", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{}
		_, err := NewClient(ft).UploadPart(context.Background(), testBucket, testObject, "id", 1,
			ReaderProducer(strings.NewReader("x")), nil)
		assert.True(t, osserr.IsDecodeError(err))
	})

	t.Run("service error", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: errorResponse(http.StatusBadRequest, "InvalidArgument", "Invalid argument.")}
		_, err := NewClient(ft).UploadPart(context.Background(), testBucket, testObject, "id", 1,
			ReaderProducer(strings.NewReader("x")), nil)
		assert.EqualError(t, err, "Invalid argument.")
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ft := &fakeTransport{respond: func(*Request) (*Response, error) {
			return nil, ctx.Err()
		}}
		_, err := NewClient(ft).UploadPart(ctx, testBucket, testObject, "id", 1,
			ReaderProducer(strings.NewReader("x")), nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, osserr.IsTransportError(err))
	})

	t.Run("deadline with blocked source", func(t *testing.T) {
		t.Parallel()
		src, srcW := io.Pipe()
		t.Cleanup(func() { srcW.Close() })

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		tr := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		returned := make(chan error, 1)
		go func() {
			_, err := NewClient(tr).UploadPart(ctx, testBucket, testObject, "id", 1, ReaderProducer(src), nil)
			returned <- err
		}()

		select {
		case err := <-returned:
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.True(t, osserr.IsTransportError(err))
		case <-time.After(2 * time.Second):
			t.Fatal("UploadPart did not return after the deadline")
		}
	})

	for _, n := range []int{0, -1, 10001} {
		ft := &fakeTransport{}
		_, err := NewClient(ft).UploadPart(context.Background(), testBucket, testObject, "id", n,
			ReaderProducer(strings.NewReader("x")), nil)
		assert.ErrorIs(t, err, osserr.ErrInvalidArgument, "part %d", n)
		assert.Zero(t, ft.count())
	}
}

func TestUploadPartFromObject(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: etagResponse("etag_1")}
	c := NewClient(ft)

	p, err := c.UploadPartFromObject(context.Background(), testBucket, testObject, "xxxyyyzzz", 1, "src_obj", nil)
	require.NoError(t, err)
	assert.Equal(t, Part{Number: 1, ETag: "etag_1"}, p)

	got := ft.last(t)
	assert.Equal(t, http.MethodPut, got.req.Method)
	assert.Equal(t, "/"+testBucket+"/src_obj", got.req.Header.Get("x-oss-copy-source"))
	assert.Empty(t, got.req.Header.Get("Range"))
	assert.Empty(t, got.body)
}

func TestUploadPartFromObjectRangeAndConditions(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: etagResponse("etag_1")}
	modified := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)

	p, err := NewClient(ft).UploadPartFromObject(context.Background(), testBucket, testObject, "xxxyyyzzz", 1, "src obj/中", &CopyPartOptions{
		SourceBucket: "other",
		Range:        &ByteRange{Start: 1, End: 5},
		Conditions: CopyConditions{
			IfModifiedSince:   modified,
			IfUnmodifiedSince: modified,
			IfMatchETag:       "me",
			IfNoneMatchETag:   "ume",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "etag_1", p.ETag)

	h := ft.last(t).req.Header
	assert.Equal(t, "bytes=1-4", h.Get("Range"))
	assert.Equal(t, "/other/src%20obj/%E4%B8%AD", h.Get("x-oss-copy-source"))
	assert.Equal(t, "me", h.Get("x-oss-copy-source-if-match"))
	assert.Equal(t, "ume", h.Get("x-oss-copy-source-if-none-match"))
	assert.Equal(t, "Wed, 21 Oct 2015 07:28:00 GMT", h.Get("x-oss-copy-source-if-modified-since"))
	assert.Equal(t, "Wed, 21 Oct 2015 07:28:00 GMT", h.Get("x-oss-copy-source-if-unmodified-since"))
}

func TestUploadPartFromObjectFailures(t *testing.T) {
	t.Parallel()

	for _, r := range []ByteRange{{Start: 5, End: 5}, {Start: 5, End: 1}, {Start: -1, End: 3}} {
		ft := &fakeTransport{}
		_, err := NewClient(ft).UploadPartFromObject(context.Background(), testBucket, testObject, "id", 1, "src",
			&CopyPartOptions{Range: &r})
		assert.ErrorIs(t, err, osserr.ErrInvalidArgument, "range %v", r)
		assert.Zero(t, ft.count())
	}

	t.Run("precondition failed", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: errorResponse(http.StatusPreconditionFailed, "PreconditionFailed", "Precondition check failed.")}
		_, err := NewClient(ft).UploadPartFromObject(context.Background(), testBucket, testObject, "id", 1, "src", nil)
		assert.EqualError(t, err, "Precondition check failed.")
		assert.True(t, osserr.IsPreconditionFailed(err))
	})

	t.Run("error body with success status", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: errorResponse(http.StatusOK, "PreconditionFailed", "Precondition check failed.")}
		_, err := NewClient(ft).UploadPartFromObject(context.Background(), testBucket, testObject, "id", 1, "src", nil)
		se, ok := osserr.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, se.HTTPStatus)
		assert.Equal(t, "0000", se.RequestID)
	})

	t.Run("etag from body", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: xmlResponse(http.StatusOK, osstypes.CopyPartResult{ETag: "body-etag"})}
		p, err := NewClient(ft).UploadPartFromObject(context.Background(), testBucket, testObject, "id", 3, "src", nil)
		require.NoError(t, err)
		assert.Equal(t, Part{Number: 3, ETag: "body-etag"}, p)
	})
}

func TestCommitTransaction(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	parts := make([]Part, 0, 5)
	for i := 1; i <= 5; i++ {
		parts = append(parts, Part{Number: i, ETag: "etag_" + string(rune('0'+i))})
	}

	res, err := NewClient(ft).CommitTransaction(context.Background(), testBucket, testObject, "xxxyyyzzz", parts)
	require.NoError(t, err)
	assert.Equal(t, &CommitResult{}, res)

	got := ft.last(t)
	assert.Equal(t, http.MethodPost, got.req.Method)
	assert.Equal(t, "uploadId=xxxyyyzzz", got.req.Query.Encode())
	assert.Equal(t, "application/xml", got.req.Header.Get("Content-Type"))
	assert.Equal(t, int64(len(got.body)), got.req.ContentLength)

	var sentBody osstypes.CompleteMultipartUpload
	require.NoError(t, xml.Unmarshal(got.body, &sentBody))
	require.Len(t, sentBody.Parts, 5)
	for i, p := range sentBody.Parts {
		assert.Equal(t, i+1, p.PartNumber)
		assert.Equal(t, parts[i].ETag, p.ETag)
	}
}

func TestCommitTransactionFailure(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: errorResponse(http.StatusBadRequest, "InvalidPart", "One or more of the specified parts could not be found.")}
	_, err := NewClient(ft).CommitTransaction(context.Background(), testBucket, testObject, "id", []Part{{Number: 1, ETag: "x"}})
	assert.EqualError(t, err, "One or more of the specified parts could not be found.")
	assert.True(t, osserr.IsInvalidPart(err))
}

func TestAbortTransaction(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{respond: func(*Request) (*Response, error) {
		return &Response{StatusCode: http.StatusNoContent}, nil
	}}
	require.NoError(t, NewClient(ft).AbortTransaction(context.Background(), testBucket, testObject, "xxxyyyzzz"))

	got := ft.last(t)
	assert.Equal(t, http.MethodDelete, got.req.Method)
	assert.Equal(t, "uploadId=xxxyyyzzz", got.req.Query.Encode())
}

func TestAbortTransactionNoSuchUpload(t *testing.T) {
	t.Parallel()

	const message = "The multipart transaction does not exist."
	ft := &fakeTransport{respond: errorResponse(http.StatusNotFound, "NoSuchUpload", message)}

	err := NewClient(ft).AbortTransaction(context.Background(), testBucket, testObject, "xxxyyyzzz")
	require.Error(t, err)
	assert.Equal(t, message, err.Error())
	assert.True(t, osserr.IsNoSuchUpload(err))
}

func TestListTransactionsQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts *ListTransactionsOptions
		want string
	}{
		{
			name: "no options",
			want: "uploads=",
		},
		{
			name: "all options",
			opts: &ListTransactionsOptions{
				Prefix:    "foo-",
				Delimiter: "-",
				KeyMarker: "key-marker",
				IDMarker:  "id-marker",
				Limit:     100,
				Encoding:  keycodec.URL,
			},
			want: "delimiter=-&encoding-type=url&key-marker=key-marker&max-uploads=100&prefix=foo-&upload-id-marker=id-marker&uploads=",
		},
		{
			name: "none encoding is not sent",
			opts: &ListTransactionsOptions{Encoding: keycodec.None},
			want: "uploads=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ft := &fakeTransport{respond: xmlResponse(http.StatusOK, osstypes.ListMultipartUploadsResult{})}
			_, more, err := NewClient(ft).ListTransactions(context.Background(), testBucket, tt.opts)
			require.NoError(t, err)
			assert.True(t, more.IsExhausted())

			got := ft.last(t)
			assert.Equal(t, http.MethodGet, got.req.Method)
			assert.Equal(t, "/", got.req.Path())
			assert.Equal(t, tt.want, got.req.Query.Encode())
		})
	}
}

func TestListPartsScenario(t *testing.T) {
	t.Parallel()

	body := `<?xml version="1.0" encoding="UTF-8"?>
<ListPartsResult>
  <PartNumberMarker>foo-</PartNumberMarker>
  <NextPartNumberMarker>bar-</NextPartNumberMarker>
  <MaxParts>100</MaxParts>
  <IsTruncated>true</IsTruncated>
  <Part>
    <PartNumber>1</PartNumber>
    <LastModified>Mon, 19 Oct 2026 10:00:00 +0000</LastModified>
    <ETag>etag-1</ETag>
    <Size>1024</Size>
  </Part>
</ListPartsResult>`
	ft := &fakeTransport{respond: func(*Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}}

	parts, more, err := NewClient(ft).ListParts(context.Background(), testBucket, testObject, "xxxyyyzzz",
		&ListPartsOptions{Marker: "foo-", Limit: 100, Encoding: keycodec.URL})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, int64(1024), *parts[0].Size)

	assert.Equal(t, "foo-", *more.Marker)
	assert.Equal(t, 100, *more.Limit)
	assert.True(t, more.Truncated)
	assert.Equal(t, "bar-", *more.NextMarker)
	assert.Nil(t, more.Encoding)

	got := ft.last(t)
	assert.Equal(t, "encoding-type=url&max-parts=100&part-number-marker=foo-&uploadId=xxxyyyzzz", got.req.Query.Encode())
}

func TestAllParts(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"": `<ListPartsResult><IsTruncated>true</IsTruncated><NextPartNumberMarker>2</NextPartNumberMarker>
<Part><PartNumber>1</PartNumber><ETag>e1</ETag></Part><Part><PartNumber>2</PartNumber><ETag>e2</ETag></Part></ListPartsResult>`,
		"2": `<ListPartsResult><PartNumberMarker>2</PartNumberMarker><IsTruncated>false</IsTruncated>
<Part><PartNumber>3</PartNumber><ETag>e3</ETag></Part></ListPartsResult>`,
	}
	ft := &fakeTransport{respond: func(req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(pages[req.Query.Get("part-number-marker")])}, nil
	}}

	var numbers []int
	for p, err := range NewClient(ft).AllParts(context.Background(), testBucket, testObject, "id", nil) {
		require.NoError(t, err)
		numbers = append(numbers, p.Number)
	}
	assert.Equal(t, []int{1, 2, 3}, numbers)
	assert.Equal(t, 2, ft.count())
}

func TestAllTransactions(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"": `<ListMultipartUploadsResult><IsTruncated>true</IsTruncated>
<NextKeyMarker>b</NextKeyMarker><NextUploadIdMarker>id-b</NextUploadIdMarker>
<Upload><Key>a</Key><UploadId>id-a</UploadId><Initiated>2026-10-19T10:00:00.000Z</Initiated></Upload>
<Upload><Key>b</Key><UploadId>id-b</UploadId><Initiated>2026-10-19T10:00:01.000Z</Initiated></Upload>
</ListMultipartUploadsResult>`,
		"b/id-b": `<ListMultipartUploadsResult><IsTruncated>false</IsTruncated>
<Upload><Key>c</Key><UploadId>id-c</UploadId><Initiated>2026-10-19T10:00:02.000Z</Initiated></Upload>
</ListMultipartUploadsResult>`,
		"boom": `<Error><Code>InternalError</Code><Message>boom</Message></Error>`,
	}

	t.Run("follows markers", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: func(req *Request) (*Response, error) {
			key := req.Query.Get("key-marker")
			if key != "" {
				key += "/" + req.Query.Get("upload-id-marker")
			}
			return &Response{StatusCode: http.StatusOK, Body: []byte(pages[key])}, nil
		}}

		var ids []string
		for txn, err := range NewClient(ft).AllTransactions(context.Background(), testBucket, nil) {
			require.NoError(t, err)
			assert.Equal(t, testBucket, txn.Bucket)
			ids = append(ids, txn.ID)
		}
		assert.Equal(t, []string{"id-a", "id-b", "id-c"}, ids)
	})

	t.Run("stops on error", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: func(*Request) (*Response, error) {
			return &Response{StatusCode: http.StatusInternalServerError, Body: []byte(pages["boom"])}, nil
		}}

		var errs []error
		for _, err := range NewClient(ft).AllTransactions(context.Background(), testBucket, nil) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.EqualError(t, errs[0], "boom")
	})

	t.Run("early break", func(t *testing.T) {
		t.Parallel()
		ft := &fakeTransport{respond: func(*Request) (*Response, error) {
			return &Response{StatusCode: http.StatusOK, Body: []byte(pages[""])}, nil
		}}

		for range NewClient(ft).AllTransactions(context.Background(), testBucket, nil) {
			break
		}
		assert.Equal(t, 1, ft.count())
	})
}
