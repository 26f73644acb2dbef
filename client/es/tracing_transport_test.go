package es

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/mocktracer"
)

type AlwaysFailedTransport struct {
}

func (t *AlwaysFailedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, errors.New("mock error")
}

func TestTracingTransport(t *testing.T) {
	RegisterTestingT(t)

	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer bad.Close()

	traced := func(rawURL string, transport http.RoundTripper) (*http.Response, error) {
		client := &http.Client{Transport: &TracingTransport{Transport: transport}}
		req, err := http.NewRequest("GET", rawURL, nil)
		Expect(err).To(BeNil())
		clientSpan := tracer.StartSpan("client")
		defer clientSpan.Finish()
		return client.Do(req.WithContext(opentracing.ContextWithSpan(context.Background(), clientSpan)))
	}

	t.Run("no span in context", func(t *testing.T) {
		tracer.Reset()
		client := &http.Client{Transport: &TracingTransport{Transport: http.DefaultTransport}}
		req, err := http.NewRequest("GET", ok.URL, nil)
		Expect(err).To(BeNil())
		res, err := client.Do(req)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusOK))
		Expect(tracer.FinishedSpans()).To(BeEmpty())
	})

	t.Run("child span", func(t *testing.T) {
		tracer.Reset()
		res, err := traced(ok.URL+"/workflow_events/_search", http.DefaultTransport)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(2))
		child, parent := spans[0], spans[1]
		Expect(parent.OperationName).To(Equal("client"))
		Expect(child.OperationName).To(Equal("elasticsearch GET /workflow_events/_search"))
		Expect(child.ParentID).To(Equal(parent.SpanContext.SpanID))
		Expect(child.Tags()).To(Equal(map[string]interface{}{
			"span.kind":        ext.SpanKindEnum("client"),
			"http.url":         ok.URL + "/workflow_events/_search",
			"http.method":      "GET",
			"http.status_code": uint16(200),
			"error":            false,
		}))
	})

	t.Run("child span of error response", func(t *testing.T) {
		tracer.Reset()
		res, err := traced(bad.URL+"/x", http.DefaultTransport)
		Expect(err).To(BeNil())
		Expect(res.StatusCode).To(Equal(http.StatusBadRequest))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(2))
		Expect(spans[0].Tag("http.status_code")).To(Equal(uint16(400)))
		Expect(spans[0].Tag("error")).To(Equal(true))
	})

	t.Run("child span without response", func(t *testing.T) {
		tracer.Reset()
		res, err := traced("http://127.0.0.1:12345/x", &AlwaysFailedTransport{})
		Expect(res).To(BeNil())
		var urlErr *url.Error
		Expect(errors.As(err, &urlErr)).To(BeTrue())
		Expect(urlErr.Err.Error()).To(Equal("mock error"))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(2))
		Expect(spans[0].Tags()).To(Equal(map[string]interface{}{
			"span.kind":     ext.SpanKindEnum("client"),
			"http.url":      "http://127.0.0.1:12345/x",
			"http.method":   "GET",
			"error":         true,
			"error.message": "mock error",
		}))
	})
}
