package personalization

// Submission is the canonical per-area design payload after boundary normalization.
// A nil Scene means no scene was submitted; a nil Preview means no usable preview.
type Submission struct {
	Scene   *Scene
	Preview []byte
}

// Resolved is the scene and preview that will be stored for one area
type Resolved struct {
	Scene   Scene
	Preview []byte
}

// NeedsAreaImage reports whether Resolve would fall back to the area background image
func NeedsAreaImage(sub *Submission) bool {
	return sub == nil || len(sub.Preview) == 0
}

// Resolve derives what to store for an area. The submitted scene wins, else the
// empty scene. The submitted preview wins, else the area's background image.
func Resolve(sub *Submission, areaImage []byte) Resolved {
	out := Resolved{Scene: EmptyScene()}
	if sub != nil && sub.Scene != nil {
		out.Scene = sub.Scene.WithoutEditorHelpers()
	}
	if sub != nil && len(sub.Preview) > 0 {
		out.Preview = sub.Preview
	} else if len(areaImage) > 0 {
		out.Preview = areaImage
	}
	return out
}
