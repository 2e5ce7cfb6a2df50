// Package captions plans the on-screen text for a narrated video.
//
// Given the narration text, the voiceover duration, and the target frame size,
// the planner slices the narration into phrases at sentence boundaries, spaces
// their start times evenly across the voiceover, alternates them between two
// bands near the bottom of the frame, and pairs them with a full-length title
// overlay near the top. The resulting LayoutPlan is plain data: the compositor
// turns it into drawing instructions and the CLI can print or export it.
//
// Timing is a linear approximation of the voiceover, not a forced alignment.
// Captions hold for a fixed display duration regardless of the spacing between
// them, so neighbouring captions can overlap in time; the alternating bands
// keep overlapping captions from drawing over one another.
//
// Everything here is pure computation over the inputs. Planner values carry no
// mutable state and may be shared between goroutines.
package captions
