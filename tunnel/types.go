package tunnel

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// StatusUndelivered is the response status used when the bridge could not
// deliver a call to the broker. It is outside the range of HTTP status codes.
const StatusUndelivered uint16 = 999

// Method is the HTTP method of a bridged call.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// Valid reports whether the bridge can forward calls with this method.
func (m Method) Valid() bool {
	return m == MethodGet || m == MethodPost
}

// Request is a call relayed by the bridge on behalf of the isolated side.
type Request struct {
	Endpoint string          `json:"endpoint"`
	Method   Method          `json:"method"`
	Body     json.RawMessage `json:"body"`
}

// NewRequest builds a Request with body marshalled to JSON. A nil body is
// sent as null.
func NewRequest(method Method, endpoint string, body any) (*Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &Request{Endpoint: endpoint, Method: method, Body: raw}, nil
}

// HasBody reports whether the request carries a body other than null.
func (r *Request) HasBody() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Response is the result of a bridged call.
type Response struct {
	Status uint16 `json:"status"`
	Body   string `json:"body"`
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// Undelivered reports whether the bridge could not reach the broker.
func (r *Response) Undelivered() bool {
	return r.Status == StatusUndelivered
}
