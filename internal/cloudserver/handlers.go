package cloudserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("database unreachable", "error", err)
		writeError(w, http.StatusServiceUnavailable, cloud.CodeServiceUnavail, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req cloud.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	q, err := queryFromDTO(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, err.Error())
		return
	}
	limit := clampLimit(req.ResultsLimit)

	var after int64
	if req.ContinuationMarker != "" {
		if after, err = decodeMarker(req.ContinuationMarker, q); err != nil {
			writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, err.Error())
			return
		}
	}

	// One extra row tells whether another page exists
	records, err := s.repo.Query(r.Context(), q, after, limit+1)
	if err != nil {
		s.logger.Error("query failed", "type", q.RecordType, "error", err)
		writeError(w, http.StatusInternalServerError, cloud.CodeInternalError, "query failed")
		return
	}

	resp := cloud.QueryResponse{Records: make([]cloud.RecordDTO, 0, min(len(records), limit))}
	if len(records) > limit {
		records = records[:limit]
		resp.ContinuationMarker = encodeMarker(records[len(records)-1].Seq, q)
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, s.toDTO(r.Context(), rec, req.DesiredKeys))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req cloud.LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, "no records requested")
		return
	}
	if len(req.Records) > MaxLookupRecords {
		writeError(w, http.StatusBadRequest, cloud.CodeLimitExceeded,
			fmt.Sprintf("at most %d records per lookup", MaxLookupRecords))
		return
	}

	names := make([]string, len(req.Records))
	for i, ref := range req.Records {
		names[i] = ref.RecordName
	}

	found, err := s.repo.Lookup(r.Context(), names)
	if err != nil {
		s.logger.Error("lookup failed", "count", len(names), "error", err)
		writeError(w, http.StatusInternalServerError, cloud.CodeInternalError, "lookup failed")
		return
	}

	resp := cloud.LookupResponse{Records: make([]cloud.RecordDTO, len(names))}
	for i, name := range names {
		rec, ok := found[name]
		if !ok {
			resp.Records[i] = notFound(name)
			continue
		}
		resp.Records[i] = s.toDTO(r.Context(), rec, req.DesiredKeys)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req cloud.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, cloud.CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Operations) > MaxLookupRecords {
		writeError(w, http.StatusBadRequest, cloud.CodeLimitExceeded,
			fmt.Sprintf("at most %d operations per request", MaxLookupRecords))
		return
	}

	resp := cloud.ModifyResponse{Records: make([]cloud.RecordDTO, 0, len(req.Operations))}
	for _, op := range req.Operations {
		dto, err := s.applyOperation(r.Context(), op)
		if err != nil {
			s.logger.Error("modify failed", "op", op.OperationType, "record", op.Record.RecordName, "error", err)
			writeError(w, http.StatusInternalServerError, cloud.CodeInternalError, "modify failed")
			return
		}
		resp.Records = append(resp.Records, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

// applyOperation runs one modify operation. Record-level problems are
// reported on the returned record; only storage failures return an error.
func (s *Server) applyOperation(ctx context.Context, op cloud.OperationDTO) (cloud.RecordDTO, error) {
	name := op.Record.RecordName

	switch op.OperationType {
	case cloud.OpForceDelete:
		rec, err := s.repo.Delete(ctx, name)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return notFound(name), nil
		}
		if err != nil {
			return cloud.RecordDTO{}, err
		}
		s.removeAssets(ctx, rec)
		return cloud.RecordDTO{RecordName: name, Deleted: true}, nil

	case cloud.OpCreate, cloud.OpForceReplace:
		if op.OperationType == cloud.OpCreate && name == "" {
			name = uuid.NewString()
		}
		if name == "" {
			return recordError(name, cloud.CodeBadRequest, "recordName is required"), nil
		}
		if op.Record.RecordType == "" {
			return recordError(name, cloud.CodeBadRequest, "recordType is required"), nil
		}
		fields, err := storedFields(op.Record.Fields)
		if err != nil {
			return recordError(name, cloud.CodeBadRequest, err.Error()), nil
		}

		rec, err := s.repo.Save(ctx, StoredRecord{Name: name, Type: op.Record.RecordType, Fields: fields})
		if err != nil {
			return cloud.RecordDTO{}, err
		}
		return s.toDTO(ctx, rec, nil), nil

	default:
		return recordError(name, cloud.CodeBadRequest, fmt.Sprintf("unknown operation %q", op.OperationType)), nil
	}
}

// toDTO renders a stored record, keeping only desiredKeys (all when empty)
// and presigning asset URLs
func (s *Server) toDTO(ctx context.Context, rec StoredRecord, desiredKeys []string) cloud.RecordDTO {
	dto := cloud.RecordDTO{
		RecordName: rec.Name,
		RecordType: rec.Type,
		Fields:     make(map[string]cloud.FieldDTO, len(rec.Fields)),
		Created:    &cloud.TimestampDTO{Timestamp: rec.Created.UnixMilli()},
		Modified:   &cloud.TimestampDTO{Timestamp: rec.Modified.UnixMilli()},
	}
	for key, f := range rec.Fields {
		if len(desiredKeys) > 0 && !slices.Contains(desiredKeys, key) {
			continue
		}
		if f.Type == cloud.TypeAssetID {
			f = s.presign(ctx, rec.Name, f)
		}
		dto.Fields[key] = f
	}
	return dto
}

func (s *Server) presign(ctx context.Context, recordName string, f cloud.FieldDTO) cloud.FieldDTO {
	var asset cloud.AssetDTO
	if err := json.Unmarshal(f.Value, &asset); err != nil || asset.ObjectKey == "" || s.assets == nil {
		return f
	}

	u, err := s.assets.PresignGet(ctx, asset.ObjectKey)
	if err != nil {
		s.logger.Warn("failed to presign asset", "record", recordName, "key", asset.ObjectKey, "error", err)
		return f
	}
	asset.DownloadURL = u

	raw, err := json.Marshal(asset)
	if err != nil {
		return f
	}
	return cloud.FieldDTO{Value: raw, Type: f.Type}
}

// removeAssets deletes the bucket objects of a deleted record.
// Objects still referenced by another record are kept.
func (s *Server) removeAssets(ctx context.Context, rec StoredRecord) {
	if s.assets == nil {
		return
	}
	for field, f := range rec.Fields {
		key, ok := assetKey(f)
		if !ok {
			continue
		}
		inUse, err := s.repo.AssetInUse(ctx, key)
		if err != nil {
			s.logger.Warn("failed to check asset references", "record", rec.Name, "key", key, "error", err)
			continue
		}
		if inUse {
			s.logger.Debug("keeping shared asset", "record", rec.Name, "key", key)
			continue
		}
		if err := s.assets.Remove(ctx, key); err != nil {
			s.logger.Warn("failed to remove asset", "record", rec.Name, "field", field, "error", err)
		}
	}
}

// storedFields validates incoming fields. Asset download URLs are dropped
// when the asset lives in the bucket, since they are presigned on read.
func storedFields(in map[string]cloud.FieldDTO) (map[string]cloud.FieldDTO, error) {
	out := make(map[string]cloud.FieldDTO, len(in))
	for key, f := range in {
		switch f.Type {
		case cloud.TypeString, "":
			var v string
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return nil, fmt.Errorf("field %q: expected a string", key)
			}
			out[key] = cloud.FieldDTO{Value: f.Value, Type: cloud.TypeString}
		case cloud.TypeAssetID:
			var asset cloud.AssetDTO
			if err := json.Unmarshal(f.Value, &asset); err != nil {
				return nil, fmt.Errorf("field %q: expected an asset", key)
			}
			if asset.ObjectKey != "" {
				asset.DownloadURL = ""
			}
			raw, err := json.Marshal(asset)
			if err != nil {
				return nil, err
			}
			out[key] = cloud.FieldDTO{Value: raw, Type: cloud.TypeAssetID}
		default:
			return nil, fmt.Errorf("field %q: unsupported type %q", key, f.Type)
		}
	}
	return out, nil
}

func queryFromDTO(dto cloud.QueryDTO) (domain.Query, error) {
	if dto.RecordType == "" {
		return domain.Query{}, errors.New("query.recordType is required")
	}

	q := domain.NewQuery(dto.RecordType)
	for _, f := range dto.FilterBy {
		cmp := domain.Comparator(f.Comparator)
		if cmp != domain.ComparatorEquals && cmp != domain.ComparatorBeginsWith {
			return domain.Query{}, fmt.Errorf("unsupported comparator %q", f.Comparator)
		}
		if f.FieldName == "" {
			return domain.Query{}, errors.New("filter fieldName is required")
		}
		var v string
		if err := json.Unmarshal(f.FieldValue.Value, &v); err != nil {
			return domain.Query{}, fmt.Errorf("filter on %q: value must be a string", f.FieldName)
		}
		q.Filters = append(q.Filters, domain.Filter{FieldName: f.FieldName, Comparator: cmp, Value: v})
	}
	return q, nil
}

func clampLimit(n int) int {
	if n == 0 {
		return DefaultResultsLimit
	}
	return max(1, min(n, MaxResultsLimit))
}

func notFound(name string) cloud.RecordDTO {
	return recordError(name, cloud.CodeNotFound, "record not found")
}

func recordError(name, code, reason string) cloud.RecordDTO {
	return cloud.RecordDTO{RecordName: name, ServerErrorCode: code, Reason: reason}
}
