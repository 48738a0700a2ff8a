package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the contact form route. It sits behind the
// admission gate installed on the API.
func RegisterRoutes(api huma.API, contactHandler *ContactHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-contact",
		Method:      http.MethodPost,
		Path:        "/contact",
		Summary:     "Relay a contact form submission",
		Description: "Validates the submission and forwards it by email. Limited per client.",
		Tags:        []string{"Contact"},
		Errors:      []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError},
	}, contactHandler.Submit)
}
