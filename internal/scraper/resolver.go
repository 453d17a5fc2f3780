// internal/scraper/resolver.go
package scraper

// ResolveField resolves one field on one page. Strategies are tried in
// declared order and the first non-empty raw candidate from the first
// strategy that produces one wins; later strategies are never evaluated.
// The transform chain is applied to that single candidate. A transform
// failure is terminal for the field on this page: the field resolves to
// absent and the failure is returned for logging, with no fallback into the
// next strategy. First-success-wins and no-fallback-after-transform-failure
// are deliberate policies favoring determinism over exhaustive recovery.
func ResolveField(p *Page, spec FieldSpec) (FieldValue, error) {
	for _, strategy := range spec.Strategies {
		raw, ok := firstNonEmpty(strategy.evaluate(p))
		if !ok {
			continue
		}

		value, err := spec.Transform.Apply(raw)
		if err != nil {
			return AbsentValue(), err
		}

		switch v := value.(type) {
		case float64:
			return NumberValue(v), nil
		case string:
			if v == "" {
				return AbsentValue(), nil
			}
			return TextValue(v), nil
		default:
			return AbsentValue(), nil
		}
	}

	return AbsentValue(), nil
}

func firstNonEmpty(candidates []string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return c, true
		}
	}
	return "", false
}
