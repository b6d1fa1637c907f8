package serviceorder

import "errors"

var (
	// Hubsoft API errors
	ErrAuthFailed       = errors.New("serviceorder: hubsoft authentication failed")
	ErrRequestFailed    = errors.New("serviceorder: hubsoft request failed")
	ErrInvalidResponse  = errors.New("serviceorder: invalid hubsoft response")
	ErrRelationRejected = errors.New("serviceorder: relation set rejected by hubsoft")
	ErrLogicalFailure   = errors.New("serviceorder: hubsoft reported a non-success status")

	// Sync errors
	ErrInvalidDateRange  = errors.New("serviceorder: invalid date range")
	ErrUnknownRelation   = errors.New("serviceorder: relation not in the allow-list")
	ErrOrderNotFound     = errors.New("serviceorder: order not found")
	ErrMissingIdentifier = errors.New("serviceorder: order payload missing id_ordem_servico")
)
