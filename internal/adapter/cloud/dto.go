package cloud

import "encoding/json"

// Field value types
const (
	TypeString  = "STRING"
	TypeAssetID = "ASSETID"
)

// Server error codes
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeAuthFailed     = "AUTHENTICATION_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeLimitExceeded  = "LIMIT_EXCEEDED"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeServiceUnavail = "SERVICE_UNAVAILABLE"
)

// Modify operation types
const (
	OpCreate       = "create"
	OpForceReplace = "forceReplace"
	OpForceDelete  = "forceDelete"
)

// QueryRequest is the body of POST .../records/query
type QueryRequest struct {
	Query              QueryDTO `json:"query"`
	DesiredKeys        []string `json:"desiredKeys,omitempty"`
	ResultsLimit       int      `json:"resultsLimit,omitempty"`
	ContinuationMarker string   `json:"continuationMarker,omitempty"`
}

// QueryDTO selects records of one type
type QueryDTO struct {
	RecordType string      `json:"recordType"`
	FilterBy   []FilterDTO `json:"filterBy,omitempty"`
}

// FilterDTO restricts a query on one field
type FilterDTO struct {
	FieldName  string   `json:"fieldName"`
	Comparator string   `json:"comparator"`
	FieldValue FieldDTO `json:"fieldValue"`
}

// QueryResponse is one page of query results
type QueryResponse struct {
	Records            []RecordDTO `json:"records"`
	ContinuationMarker string      `json:"continuationMarker,omitempty"`
}

// LookupRequest is the body of POST .../records/lookup
type LookupRequest struct {
	Records     []RecordRefDTO `json:"records"`
	DesiredKeys []string       `json:"desiredKeys,omitempty"`
}

// RecordRefDTO names a record
type RecordRefDTO struct {
	RecordName string `json:"recordName"`
}

// LookupResponse carries one entry per requested record, in request order.
// Missing records come back with ServerErrorCode set.
type LookupResponse struct {
	Records []RecordDTO `json:"records"`
}

// ModifyRequest is the body of POST .../records/modify
type ModifyRequest struct {
	Operations []OperationDTO `json:"operations"`
}

// OperationDTO is a single create, replace or delete
type OperationDTO struct {
	OperationType string    `json:"operationType"`
	Record        RecordDTO `json:"record"`
}

// ModifyResponse carries the saved (or deleted) records in operation order
type ModifyResponse struct {
	Records []RecordDTO `json:"records"`
}

// RecordDTO is a record on the wire
type RecordDTO struct {
	RecordName      string              `json:"recordName"`
	RecordType      string              `json:"recordType,omitempty"`
	Fields          map[string]FieldDTO `json:"fields,omitempty"`
	Created         *TimestampDTO       `json:"created,omitempty"`
	Modified        *TimestampDTO       `json:"modified,omitempty"`
	Deleted         bool                `json:"deleted,omitempty"`
	ServerErrorCode string              `json:"serverErrorCode,omitempty"`
	Reason          string              `json:"reason,omitempty"`
}

// FieldDTO is a typed field value. Value holds a JSON string or an AssetDTO.
type FieldDTO struct {
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type,omitempty"`
}

// AssetDTO describes a file attached to a record
type AssetDTO struct {
	DownloadURL  string `json:"downloadURL,omitempty"`
	FileChecksum string `json:"fileChecksum,omitempty"`
	Size         int64  `json:"size,omitempty"`
	ObjectKey    string `json:"objectKey,omitempty"`
}

// TimestampDTO is milliseconds since the epoch
type TimestampDTO struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorResponse is the body of a failed request
type ErrorResponse struct {
	ServerErrorCode string `json:"serverErrorCode"`
	Reason          string `json:"reason,omitempty"`
}
