package logger

import "log/slog"

// Standard structured field keys, kept centralized so every package spells
// "tenant_id" the same way in logs destined for the same aggregation backend.
const (
	KeyTenantID     = "tenant_id"
	KeyDepartmentID = "department_id"
	KeyRecordID     = "record_id"
	KeyParentPath   = "parent_path"
	KeyName         = "name"
	KeyHash         = "content_hash"
	KeyStorageKey   = "storage_key"
	KeyScope        = "scope"
	KeyAction       = "action"
	KeyActorID      = "actor_id"
	KeyRole         = "role"
	KeyVisibility   = "visibility"
	KeySizeClass    = "size_class"
	KeySizeBytes    = "size_bytes"
	KeyDedupHit     = "dedup_hit"
	KeyShareToken   = "share_token"
	KeyErr          = "error"
	KeyAlert        = "alert"
	KeyDuration     = "duration"
	KeyBackend      = "backend"
)

func TenantID(v string) slog.Attr     { return slog.String(KeyTenantID, v) }
func DepartmentID(v string) slog.Attr { return slog.String(KeyDepartmentID, v) }
func RecordID(v string) slog.Attr     { return slog.String(KeyRecordID, v) }
func ParentPath(v string) slog.Attr   { return slog.String(KeyParentPath, v) }
func Name(v string) slog.Attr         { return slog.String(KeyName, v) }
func Hash(v string) slog.Attr         { return slog.String(KeyHash, v) }
func StorageKey(v string) slog.Attr   { return slog.String(KeyStorageKey, v) }
func Scope(v string) slog.Attr        { return slog.String(KeyScope, v) }
func Action(v string) slog.Attr       { return slog.String(KeyAction, v) }
func ActorID(v string) slog.Attr      { return slog.String(KeyActorID, v) }
func Role(v string) slog.Attr         { return slog.String(KeyRole, v) }
func Visibility(v string) slog.Attr   { return slog.String(KeyVisibility, v) }
func SizeClass(v string) slog.Attr    { return slog.String(KeySizeClass, v) }
func SizeBytes(v uint64) slog.Attr    { return slog.Uint64(KeySizeBytes, v) }
func DedupHit(v bool) slog.Attr       { return slog.Bool(KeyDedupHit, v) }
func ShareToken(v string) slog.Attr   { return slog.String(KeyShareToken, v) }
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyErr, "")
	}
	return slog.String(KeyErr, err.Error())
}
func Backend(v string) slog.Attr { return slog.String(KeyBackend, v) }
