package browser

// Cookie is one entry of the context's cookie jar, captured for components
// that issue HTTP requests outside the page's own execution context.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Response is the outcome of a request issued through the browser's
// request API.
type Response struct {
	// Status is the HTTP status code
	Status int

	// StatusText is the HTTP status text
	StatusText string

	// Body is the raw response body
	Body []byte
}

// OK reports whether the response status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
