package rules

// Aggregate folds individual rule verdicts into the overall cluster verdict:
// Compliant only when every rule passed, NonCompliant as soon as any rule
// failed. Every registered rule contributes, version support included. The
// result is always recomputed from the component verdicts, never cached.
func Aggregate(results map[string]CheckResult) CheckResult {
	if len(results) == 0 {
		return NonCompliant
	}
	for _, result := range results {
		if result != Compliant {
			return NonCompliant
		}
	}
	return Compliant
}
