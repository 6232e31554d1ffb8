package personalization

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CurrentSceneVersion is the canvas serialization version written for new scenes
const CurrentSceneVersion = "5.3.0"

// ErrMalformedScene is returned alongside the empty scene when scene text cannot be parsed
var ErrMalformedScene = errors.New("malformed scene document")

// Scene is a versioned description of the drawing objects placed on one design area.
// Objects are opaque to the service and kept verbatim. Unknown top-level keys
// (background, clipPath, legacy fields) survive a parse/serialize round trip.
type Scene struct {
	Version string
	Objects []json.RawMessage
	extra   map[string]json.RawMessage
}

// EmptyScene returns a scene of the current version with no objects
func EmptyScene() Scene {
	return Scene{Version: CurrentSceneVersion, Objects: []json.RawMessage{}}
}

// HasContent reports whether at least one object is placed on the scene
func (s Scene) HasContent() bool {
	return len(s.Objects) > 0
}

// ParseScene parses stored or submitted scene text.
// Blank input yields the empty scene without error. Anything unparsable yields
// the empty scene together with an error wrapping ErrMalformedScene, so callers
// can log and carry on.
func ParseScene(text string) (Scene, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return EmptyScene(), nil
	}
	return parseSceneBytes([]byte(trimmed), true)
}

// ParseSceneJSON parses a scene that arrived as raw JSON. The value may be an
// object or a string holding the serialized object.
func ParseSceneJSON(raw json.RawMessage) (Scene, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyScene(), nil
	}
	return parseSceneBytes(trimmed, true)
}

func parseSceneBytes(data []byte, allowQuoted bool) (Scene, error) {
	if allowQuoted && len(data) > 0 && data[0] == '"' {
		// double-encoded: a JSON string containing the document
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return EmptyScene(), fmt.Errorf("%w: %v", ErrMalformedScene, err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return EmptyScene(), nil
		}
		return parseSceneBytes([]byte(inner), false)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return EmptyScene(), fmt.Errorf("%w: %v", ErrMalformedScene, err)
	}
	if fields == nil {
		return EmptyScene(), nil
	}

	scene := EmptyScene()
	if raw, ok := fields["version"]; ok {
		var version string
		if err := json.Unmarshal(raw, &version); err == nil && version != "" {
			scene.Version = version
		}
		delete(fields, "version")
	}
	if raw, ok := fields["objects"]; ok {
		var objects []json.RawMessage
		if err := json.Unmarshal(raw, &objects); err != nil {
			return EmptyScene(), fmt.Errorf("%w: objects: %v", ErrMalformedScene, err)
		}
		if objects != nil {
			scene.Objects = objects
		}
		delete(fields, "objects")
	}
	if len(fields) > 0 {
		scene.extra = fields
	}
	return scene, nil
}

// WithoutEditorHelpers drops the zone rectangle the editor draws to show the
// printable area. It is scaffolding, not part of the design.
func (s Scene) WithoutEditorHelpers() Scene {
	kept := make([]json.RawMessage, 0, len(s.Objects))
	for _, obj := range s.Objects {
		if isZoneRect(obj) {
			continue
		}
		kept = append(kept, obj)
	}
	s.Objects = kept
	return s
}

func isZoneRect(obj json.RawMessage) bool {
	var probe struct {
		Name       string `json:"name"`
		IsZoneRect bool   `json:"isZoneRect"`
	}
	if err := json.Unmarshal(obj, &probe); err != nil {
		return false
	}
	return probe.IsZoneRect || probe.Name == "zoneRect"
}

// MarshalJSON writes version, objects and any preserved extra keys
func (s Scene) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.extra)+2)
	for k, v := range s.extra {
		out[k] = v
	}
	version := s.Version
	if version == "" {
		version = CurrentSceneVersion
	}
	v, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}
	out["version"] = v

	objects := s.Objects
	if objects == nil {
		objects = []json.RawMessage{}
	}
	o, err := json.Marshal(objects)
	if err != nil {
		return nil, err
	}
	out["objects"] = o
	return json.Marshal(out)
}

// UnmarshalJSON parses leniently; malformed input is reported as an error
func (s *Scene) UnmarshalJSON(data []byte) error {
	scene, err := ParseSceneJSON(data)
	*s = scene
	return err
}

// String serializes the scene for storage
func (s Scene) String() string {
	data, err := s.MarshalJSON()
	if err != nil {
		// objects are already valid JSON, so this only happens on a programming error
		return `{"objects":[],"version":"` + CurrentSceneVersion + `"}`
	}
	return string(data)
}
