// Package translate provides the ordered translation provider chain.
//
// Providers share the Translator interface and are tried in a fixed priority
// order (LibreTranslate, DeepL, then an OpenAI-compatible LLM endpoint); each
// provider failure is caught and logged, falling through to the next. Only
// exhausting every provider surfaces an error, at which point the stage
// substitutes the deterministic placeholder translation.
package translate
