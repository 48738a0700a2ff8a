package handlers

// ContactRequest carries the raw submission. The body is decoded by the
// handler so both form-encoded and JSON posts are accepted.
type ContactRequest struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte `contentType:"application/x-www-form-urlencoded"`
}

// ContactResponse is plain text on success and a JSON array of field errors
// on validation failure.
type ContactResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Reference   string `doc:"Reference of the relayed message" header:"X-Contact-Reference"`
	Body        []byte
}
