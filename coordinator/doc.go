// Package coordinator drives one simulation session end to end: it walks the
// session's questions strictly in order and, for each question, fans out one
// task per agent, joins them all, converts stragglers and per-agent
// infrastructure failures into placeholder answers, and records timing
// metrics. Question rounds never overlap because a later round's memory
// context may depend on the previous round's just-written events.
//
// Per-agent tasks are owned by the round's join; there is no global task
// registry. A task that exceeds its deadline is abandoned and accounted for
// exactly like a per-agent I/O error, so one stuck gateway call can never
// block a round. Model-quality problems never surface here at all; the
// synthesizer absorbs them.
package coordinator
