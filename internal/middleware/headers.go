package middleware

import "net/http"

// Headers sets each header in defaults that the request does not already
// carry. The request is cloned before it is modified.
func Headers(defaults http.Header) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			for key, values := range defaults {
				if r.Header.Get(key) != "" {
					continue
				}
				for _, v := range values {
					r.Header.Add(key, v)
				}
			}
			return next.RoundTrip(r)
		})
	}
}
