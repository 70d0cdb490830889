package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// --- Zones ---

// ZoneIDMap encodes a zone id as name and owner_id.
func ZoneIDMap(id model.ZoneID) map[string]any {
	return map[string]any{"name": id.Name, "owner_id": id.OwnerID.String()}
}

// ZoneIDFrom parses a zone id; the owner must be a valid uuid.
func ZoneIDFrom(s *structpb.Struct) (model.ZoneID, error) {
	f := Read(s)
	owner, err := uuid.FromString(f.String("owner_id"))
	if err != nil {
		return model.ZoneID{}, fmt.Errorf("%w: owner_id: %w", errs.ErrValidation, err)
	}
	if f.String("name") == "" {
		return model.ZoneID{}, fmt.Errorf("%w: empty zone name", errs.ErrValidation)
	}
	return model.ZoneID{Name: f.String("name"), OwnerID: owner}, nil
}

// ZoneMap encodes a zone with its optional share id.
func ZoneMap(z model.Zone) map[string]any {
	return map[string]any{"id": ZoneIDMap(z.ID), "share_id": z.ShareID}
}

// ZoneFrom decodes ZoneMap output.
func ZoneFrom(s *structpb.Struct) (model.Zone, error) {
	id, err := ZoneIDFrom(Read(s).Struct("id"))
	if err != nil {
		return model.Zone{}, err
	}
	return model.Zone{ID: id, ShareID: Read(s).String("share_id")}, nil
}

// ZonesMap encodes a zone list under "zones".
func ZonesMap(zs []model.Zone) map[string]any {
	list := make([]any, 0, len(zs))
	for _, z := range zs {
		list = append(list, ZoneMap(z))
	}
	return map[string]any{"zones": list}
}

// ZonesFrom decodes ZonesMap output.
func ZonesFrom(s *structpb.Struct) ([]model.Zone, error) {
	vals := Read(s).List("zones")
	out := make([]model.Zone, 0, len(vals))
	for i, v := range vals {
		z, err := ZoneFrom(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("zones[%d]: %w", i, err)
		}
		out = append(out, z)
	}
	return out, nil
}

// --- Records ---

// RecordMap encodes a record. created_at is RFC3339Nano.
func RecordMap(r model.Record) map[string]any {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return map[string]any{
		"id":         r.ID,
		"zone":       ZoneIDMap(r.ZoneID),
		"type":       r.Type,
		"fields":     fields,
		"created_at": ts(r.CreatedAt),
	}
}

// RecordFrom decodes RecordMap output.
func RecordFrom(s *structpb.Struct) (model.Record, error) {
	f := Read(s)
	zone, err := ZoneIDFrom(f.Struct("zone"))
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{
		ID:        f.String("id"),
		ZoneID:    zone,
		Type:      f.String("type"),
		Fields:    f.Struct("fields").AsMap(),
		CreatedAt: f.Time("created_at"),
	}, nil
}

// BatchMap encodes a change batch; the next token travels as a string.
func BatchMap(b model.ChangeBatch) map[string]any {
	recs := make([]any, 0, len(b.Records))
	for _, r := range b.Records {
		recs = append(recs, RecordMap(r))
	}
	return map[string]any{
		"records":      recs,
		"more_pending": b.MorePending,
		"next_token":   string(b.NextToken),
	}
}

// BatchFrom decodes BatchMap output.
func BatchFrom(s *structpb.Struct) (model.ChangeBatch, error) {
	f := Read(s)
	vals := f.List("records")
	b := model.ChangeBatch{
		Records:     make([]model.Record, 0, len(vals)),
		MorePending: f.Bool("more_pending"),
	}
	if t := f.String("next_token"); t != "" {
		b.NextToken = model.ChangeToken(t)
	}
	for i, v := range vals {
		r, err := RecordFrom(v.GetStructValue())
		if err != nil {
			return model.ChangeBatch{}, fmt.Errorf("records[%d]: %w", i, err)
		}
		b.Records = append(b.Records, r)
	}
	return b, nil
}

// --- Shares ---

// GrantMap encodes a share grant. The token is sent as given; the service
// clears it for callers other than the owner.
func GrantMap(g model.ShareGrant) map[string]any {
	return map[string]any{
		"id":         g.ID,
		"zone":       ZoneIDMap(g.ZoneID),
		"title":      g.Title,
		"permission": g.Permission.String(),
		"private":    g.Private,
		"token":      g.Token,
		"created_at": ts(g.CreatedAt),
	}
}

// GrantFrom decodes GrantMap output.
func GrantFrom(s *structpb.Struct) (model.ShareGrant, error) {
	f := Read(s)
	zone, err := ZoneIDFrom(f.Struct("zone"))
	if err != nil {
		return model.ShareGrant{}, err
	}
	return model.ShareGrant{
		ID:         f.String("id"),
		ZoneID:     zone,
		Title:      f.String("title"),
		Permission: model.ParsePermission(f.String("permission")),
		Private:    f.Bool("private"),
		Token:      f.String("token"),
		CreatedAt:  f.Time("created_at"),
	}, nil
}

// DescriptorsMap encodes share descriptors under "descriptors".
func DescriptorsMap(ds []model.ShareDescriptor) map[string]any {
	list := make([]any, 0, len(ds))
	for _, d := range ds {
		list = append(list, map[string]any{
			"container_id": d.ContainerID,
			"share_id":     d.ShareID,
			"zone_name":    d.ZoneName,
			"owner_id":     d.OwnerID,
			"title":        d.Title,
			"token":        d.Token,
		})
	}
	return map[string]any{"descriptors": list}
}

// DescriptorsFrom decodes DescriptorsMap output, skipping non-object items.
func DescriptorsFrom(s *structpb.Struct) []model.ShareDescriptor {
	vals := Read(s).List("descriptors")
	out := make([]model.ShareDescriptor, 0, len(vals))
	for _, v := range vals {
		f := Read(v.GetStructValue())
		out = append(out, model.ShareDescriptor{
			ContainerID: f.String("container_id"),
			ShareID:     f.String("share_id"),
			ZoneName:    f.String("zone_name"),
			OwnerID:     f.String("owner_id"),
			Title:       f.String("title"),
			Token:       f.String("token"),
		})
	}
	return out
}

// ResultsMap encodes per-item accept results. Errors outside the sentinel
// set are sent with a fixed message.
func ResultsMap(rs []model.AcceptResult) map[string]any {
	list := make([]any, 0, len(rs))
	for _, r := range rs {
		item := map[string]any{"share_id": r.ShareID}
		if r.Err != nil {
			code := ErrorCode(r.Err)
			item["code"] = code
			if code == internalCode {
				item["error"] = "accept failed"
			} else {
				item["error"] = r.Err.Error()
			}
		}
		list = append(list, item)
	}
	return map[string]any{"results": list}
}

// ResultsFrom decodes ResultsMap output.
func ResultsFrom(s *structpb.Struct) []model.AcceptResult {
	vals := Read(s).List("results")
	out := make([]model.AcceptResult, 0, len(vals))
	for _, v := range vals {
		f := Read(v.GetStructValue())
		r := model.AcceptResult{ShareID: f.String("share_id")}
		if f.Has("code") {
			r.Err = ErrorFromCode(f.String("code"), f.String("error"))
		}
		out = append(out, r)
	}
	return out
}

// --- Per-item errors ---

var codes = []struct {
	code string
	err  error
}{
	{"not_found", errs.ErrNotFound},
	{"already_exists", errs.ErrAlreadyExists},
	{"permission_denied", errs.ErrPermissionDenied},
	{"not_grant", errs.ErrNotGrant},
	{"validation", errs.ErrValidation},
	{"unauthorized", errs.ErrUnauthorized},
}

const internalCode = "internal"

// ErrorCode names the sentinel err wraps, or "internal".
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return internalCode
}

// ErrorFromCode rebuilds an error that matches the sentinel named by code.
func ErrorFromCode(code, msg string) error {
	for _, c := range codes {
		if c.code == code {
			if msg == "" || msg == c.err.Error() {
				return c.err
			}
			return fmt.Errorf("%w: %s", c.err, strings.TrimPrefix(msg, c.err.Error()+": "))
		}
	}
	return fmt.Errorf("%w: %s", errs.ErrRemoteStore, msg)
}
