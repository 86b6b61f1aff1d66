// Package synthesizer turns one (agent, question, memory-context) triple into
// one agent answer. It never fails for model-quality reasons: generation runs
// through an ordered three-tier escalation (plain call, strict retry,
// deterministic templated fallback) whose last tier cannot fail, so every
// invocation yields a non-empty answer and a batch never stalls on one flaky
// upstream response.
package synthesizer
