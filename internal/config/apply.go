package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type setting struct {
	apply func(s *Session, v any) error
}

var settings = map[string]setting{
	PathTheme: {func(s *Session, v any) error {
		name, err := asString(PathTheme, v)
		if err != nil {
			return err
		}
		return s.SetTheme(name)
	}},
	PathFontFace: {func(s *Session, v any) error {
		face, err := asFontFace(v)
		if err != nil {
			return err
		}
		return s.SetFontFace(face)
	}},
	PathFontSize: {func(s *Session, v any) error {
		f, err := asFloat(PathFontSize, v)
		if err != nil {
			return err
		}
		return s.SetFontSize(f)
	}},
	PathLineHeight: {func(s *Session, v any) error {
		f, err := asFloat(PathLineHeight, v)
		if err != nil {
			return err
		}
		return s.SetLineHeight(f)
	}},
	PathShowLineNumbers:         boolSetting(PathShowLineNumbers, (*Session).SetShowLineNumbers),
	PathShowActiveLineIndicator: boolSetting(PathShowActiveLineIndicator, (*Session).SetShowActiveLineIndicator),
	PathReadOnlyMode:            boolSetting(PathReadOnlyMode, (*Session).SetReadOnlyMode),
	PathTypewriterMode:          boolSetting(PathTypewriterMode, (*Session).SetTypewriterMode),
	PathFocusMode:               boolSetting(PathFocusMode, (*Session).SetFocusMode),
	PathLineWrapping:            boolSetting(PathLineWrapping, (*Session).SetLineWrapping),
	PathSuggestWhileTyping:      boolSetting(PathSuggestWhileTyping, (*Session).SetSuggestWhileTyping),
	PathInvisiblesBehavior: {func(s *Session, v any) error {
		str, err := asString(PathInvisiblesBehavior, v)
		if err != nil {
			return err
		}
		return s.SetInvisiblesBehavior(InvisiblesBehavior(str), true)
	}},
	PathDefaultLineBreak: {func(s *Session, v any) error {
		str, err := asString(PathDefaultLineBreak, v)
		if err != nil {
			return err
		}
		return s.SetDefaultLineBreak(LineBreak(str))
	}},
	PathIndentUnit: {func(s *Session, v any) error {
		// A number means that many spaces.
		if n, err := asFloat(PathIndentUnit, v); err == nil {
			if n < 1 || n > 8 || n != float64(int(n)) {
				return invalid(PathIndentUnit, v)
			}
			return s.SetIndentUnit(strings.Repeat(" ", int(n)))
		}
		str, err := asString(PathIndentUnit, v)
		if err != nil {
			return err
		}
		return s.SetIndentUnit(str)
	}},
	PathTabKeyBehavior: {func(s *Session, v any) error {
		str, err := asString(PathTabKeyBehavior, v)
		if err != nil {
			return err
		}
		return s.SetTabKeyBehavior(TabKeyBehavior(str))
	}},
	PathLocale: {func(s *Session, v any) error {
		str, err := asString(PathLocale, v)
		if err != nil {
			return err
		}
		return s.SetLocale(str)
	}},
}

func boolSetting(path string, set func(*Session, bool)) setting {
	return setting{func(s *Session, v any) error {
		b, ok := v.(bool)
		if !ok {
			return &Error{Path: path, Value: v, Err: ErrTypeMismatch}
		}
		set(s, b)
		return nil
	}}
}

// Paths returns every known setting path, sorted.
func Paths() []string {
	paths := make([]string, 0, len(settings))
	for p := range settings {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Apply routes every key of values through the matching setter. Nested
// maps are flattened to dotted paths ("editor" → {"typewriterMode": true}
// becomes "editor.typewriterMode"). Keys are applied in sorted order; a
// rejected key does not stop the others. The returned error joins every
// rejection.
func (s *Session) Apply(values map[string]any, source string) error {
	prev := s.source
	s.source = source
	defer func() { s.source = prev }()

	flat := Flatten(values)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		st, ok := settings[key]
		if !ok {
			errs = append(errs, &Error{Path: key, Value: flat[key], Err: ErrUnknownSetting})
			continue
		}
		if err := st.apply(s, flat[key]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flatten converts nested maps into a single map keyed by dotted paths.
// The font face map is kept whole.
func Flatten(values map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", values)
	return out
}

func flattenInto(out map[string]any, prefix string, values map[string]any) {
	for k, v := range values {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok && path != PathFontFace {
			flattenInto(out, path, m)
			continue
		}
		out[path] = v
	}
}

func asString(path string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", &Error{Path: path, Value: v, Err: ErrTypeMismatch}
}

func asFloat(path string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, &Error{Path: path, Value: v, Err: ErrTypeMismatch}
}

func asFontFace(v any) (FontFace, error) {
	switch t := v.(type) {
	case FontFace:
		return t, nil
	case string:
		return FontFace{Family: t}, nil
	case map[string]any:
		var face FontFace
		for k, fv := range t {
			s, ok := fv.(string)
			if !ok {
				return FontFace{}, &Error{Path: PathFontFace + "." + k, Value: fv, Err: ErrTypeMismatch}
			}
			switch k {
			case "family":
				face.Family = s
			case "weight":
				face.Weight = s
			case "style":
				face.Style = s
			default:
				return FontFace{}, &Error{Path: PathFontFace + "." + k, Value: fv, Err: ErrUnknownSetting}
			}
		}
		return face, nil
	}
	return FontFace{}, &Error{Path: PathFontFace, Value: v, Err: ErrTypeMismatch}
}
