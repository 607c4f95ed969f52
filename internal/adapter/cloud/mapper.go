package cloud

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
)

// MapRecord converts a wire record to a domain record.
// Fields of unknown type are skipped.
func MapRecord(dto RecordDTO) (*domain.Record, error) {
	rec := &domain.Record{
		ID:     domain.RecordID(dto.RecordName),
		Type:   dto.RecordType,
		Fields: make(map[string]any, len(dto.Fields)),
	}
	if dto.Created != nil {
		rec.CreatedAt = time.UnixMilli(dto.Created.Timestamp)
	}
	if dto.Modified != nil {
		rec.ModifiedAt = time.UnixMilli(dto.Modified.Timestamp)
	}

	for key, f := range dto.Fields {
		v, err := mapFieldValue(f)
		if err != nil {
			return nil, fmt.Errorf("field %q of record %s: %w", key, dto.RecordName, err)
		}
		if v != nil {
			rec.Fields[key] = v
		}
	}
	return rec, nil
}

func mapFieldValue(f FieldDTO) (any, error) {
	switch f.Type {
	case TypeAssetID:
		var a AssetDTO
		if err := json.Unmarshal(f.Value, &a); err != nil {
			return nil, err
		}
		return &domain.Asset{
			DownloadURL: a.DownloadURL,
			Checksum:    a.FileChecksum,
			Size:        a.Size,
			ObjectKey:   a.ObjectKey,
		}, nil
	case TypeString, "":
		var s string
		if err := json.Unmarshal(f.Value, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}

// MapRecords converts a page of wire records
func MapRecords(dtos []RecordDTO) ([]*domain.Record, error) {
	records := make([]*domain.Record, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := MapRecord(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// RecordToDTO converts a domain record to its wire form
func RecordToDTO(rec *domain.Record) (RecordDTO, error) {
	dto := RecordDTO{
		RecordName: string(rec.ID),
		RecordType: rec.Type,
		Fields:     make(map[string]FieldDTO, len(rec.Fields)),
	}
	if !rec.CreatedAt.IsZero() {
		dto.Created = &TimestampDTO{Timestamp: rec.CreatedAt.UnixMilli()}
	}
	if !rec.ModifiedAt.IsZero() {
		dto.Modified = &TimestampDTO{Timestamp: rec.ModifiedAt.UnixMilli()}
	}

	for key, v := range rec.Fields {
		f, err := fieldToDTO(v)
		if err != nil {
			return RecordDTO{}, fmt.Errorf("field %q: %w", key, err)
		}
		dto.Fields[key] = f
	}
	return dto, nil
}

func fieldToDTO(v any) (FieldDTO, error) {
	switch val := v.(type) {
	case string:
		raw, err := json.Marshal(val)
		if err != nil {
			return FieldDTO{}, err
		}
		return FieldDTO{Value: raw, Type: TypeString}, nil
	case *domain.Asset:
		raw, err := json.Marshal(AssetDTO{
			DownloadURL:  val.DownloadURL,
			FileChecksum: val.Checksum,
			Size:         val.Size,
			ObjectKey:    val.ObjectKey,
		})
		if err != nil {
			return FieldDTO{}, err
		}
		return FieldDTO{Value: raw, Type: TypeAssetID}, nil
	default:
		return FieldDTO{}, fmt.Errorf("unsupported field type %T", v)
	}
}

// queryToDTO converts a domain query to its wire form
func queryToDTO(q domain.Query) QueryDTO {
	dto := QueryDTO{RecordType: q.RecordType}
	for _, f := range q.Filters {
		raw, _ := json.Marshal(f.Value)
		dto.FilterBy = append(dto.FilterBy, FilterDTO{
			FieldName:  f.FieldName,
			Comparator: string(f.Comparator),
			FieldValue: FieldDTO{Value: raw, Type: TypeString},
		})
	}
	return dto
}
