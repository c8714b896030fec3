package mcpserver

// WorkflowGuide describes how image references in documents are turned
// into LaTeX, for LLM consumers driving the tools.
const WorkflowGuide = `# texsnap OCR Workflow

texsnap replaces image references in Markdown documents with the LaTeX
recognised from the referenced image.

## Image references

Two forms are detected, each on a single line:

` + "```" + `markdown
![[formula.png]]
![optional alt text](formula.png)
` + "```" + `

Wiki references may carry an alias after a pipe: ` + "`" + `![[formula.png|fig 1]]` + "`" + `.
The referenced path is resolved against, in order: the document's own
directory, the vault root, the shared ` + "`" + `attachments/` + "`" + ` directory, and
finally a vault-wide unique basename match.

## Automatic mode

When auto mode is enabled (` + "`" + `set_auto_mode` + "`" + `), every image reference that
newly appears in a document — a paste, typically — is submitted for
recognition and substituted in place once the result arrives. Each
reference is submitted at most once per document while the mode stays
enabled; disabling and re-enabling resets that memory.

## Manual tools

- ` + "`" + `ocr_selection` + "`" + ` recognises exactly one selected reference. The
  selection must be the reference token and nothing else.
- ` + "`" + `ocr_document` + "`" + ` sweeps a whole document and reports a
  found/replaced/failed summary. Failed references stay in place.

## Uploading images

1. Call ` + "`" + `upload_image` + "`" + ` with a base64 data URI (or http(s) URL). It
   stores the file under ` + "`" + `attachments/` + "`" + ` and returns a ` + "`" + `markdownImage` + "`" + `
   snippet.
2. Paste the snippet into a document (via ` + "`" + `read_note` + "`" + ` + your edit, or
   the REST API).
3. With auto mode on, the reference is recognised and replaced without
   further calls; otherwise run ` + "`" + `ocr_selection` + "`" + ` or ` + "`" + `ocr_document` + "`" + `.

Supported image formats: png, jpg, jpeg, gif, webp, bmp.
`
