// internal/config/secrets.go
//
// Vault reference resolution.
//
// Any string value in the merged tree of the form
//
//	vault:<mount>/<path>#<key>
//
// is replaced by the secret it names before unmarshalling.  The resolver
// is injected so this package never imports the Vault client.

package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	koanf "github.com/knadh/koanf/v2"
)

// RefPrefix marks a value that must be fetched from Vault.
const RefPrefix = "vault:"

// SecretGetter fetches one secret value.  *vault.Client implements it.
type SecretGetter interface {
	Resolve(ctx context.Context, ref Ref) (string, error)
}

// Ref is a parsed vault reference.
type Ref struct {
	Path string // "kv/data/site"
	Key  string // "csrf_key"
}

func (r Ref) String() string { return RefPrefix + r.Path + "#" + r.Key }

// ParseRef parses "vault:kv/data/site#csrf_key".  ok is false when s is not
// a vault reference at all; err is set when it is one but malformed.
func ParseRef(s string) (ref Ref, ok bool, err error) {
	if !strings.HasPrefix(s, RefPrefix) {
		return Ref{}, false, nil
	}
	body := strings.TrimPrefix(s, RefPrefix)
	path, key, found := strings.Cut(body, "#")
	path = strings.Trim(path, "/")
	if !found || path == "" || key == "" {
		return Ref{}, true, fmt.Errorf("config: malformed vault reference %q", s)
	}
	return Ref{Path: path, Key: key}, true, nil
}

// resolveSecrets rewrites every vault reference in k in place and returns
// how many were resolved.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, sg SecretGetter) (int, error) {
	keys := k.Keys()
	sort.Strings(keys)

	n := 0
	for _, key := range keys {
		s, isStr := k.Get(key).(string)
		if !isStr {
			continue
		}
		ref, ok, err := ParseRef(s)
		if !ok {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", key, err)
		}
		if sg == nil {
			return n, fmt.Errorf("config: %s references %s but no secret source is configured", key, ref)
		}
		val, err := sg.Resolve(ctx, ref)
		if err != nil {
			return n, fmt.Errorf("config: resolve %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return n, fmt.Errorf("config: set %s: %w", key, err)
		}
		n++
	}
	return n, nil
}
