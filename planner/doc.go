// Package planner implements retrieval-augmented allocation planning: given
// a research goal and a requested agent count, it sweeps the knowledge corpus
// with parallel hybrid-search queries under one shared deadline, folds the
// surviving snippets into a long-form generation request, and defensively
// parses the model's reply into a validated core.AllocationPlan.
//
// Retrieval context is advisory: a sweep that times out or fails entirely
// degrades to planning without corpus grounding rather than failing the call.
// Parse failures are never guessed around; they surface as ErrUnparseable
// with a truncated raw response attached for diagnosis.
package planner
