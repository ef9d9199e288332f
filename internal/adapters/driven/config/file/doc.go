// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - Store: TOML-based run configuration with hot reload
//   - PromptStore: user-editable LLM prompt files
package file
