package search

// StatusSuccess is the envelope status of every successful search.
const StatusSuccess = "success"

// EnvelopeBody is the wire shape shared by the REST and gRPC surfaces.
type EnvelopeBody struct {
	Status          string   `json:"status"`
	FiltersReceived Criteria `json:"filters_received"`
	Data            []Result `json:"data"`
	Meta            Meta     `json:"meta"`
	Notices         []Notice `json:"notices,omitempty"`
}

// Envelope wraps resp together with the criteria it answered.
func Envelope(c Criteria, resp *Response) EnvelopeBody {
	return EnvelopeBody{
		Status:          StatusSuccess,
		FiltersReceived: c,
		Data:            resp.Results,
		Meta:            resp.Meta,
		Notices:         resp.Notices,
	}
}
