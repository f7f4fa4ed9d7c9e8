// Package patterns holds the compiled detection tables used by the intent,
// contextual, and compliance planes: weighted intent categories, instruction
// poisoning markers, and PII detectors with their regulatory citations.
//
// The built-in tables (DefaultSet) ship with the library. Deployments can
// replace or extend them with a YAML pattern pack loaded at construction
// (Load) and optionally hot-reloaded on file change (Provider.Watch). Packs
// are data, not architecture: a bad pack fails at load time and never at
// evaluation time.
//
// A Set is immutable once compiled. The Provider publishes the current Set
// behind an atomic pointer, so planes always observe a complete table and
// reloads never tear an in-flight evaluation.
package patterns
