package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeDetectClones() string {
	return `Detects Type I clones: syntactically identical code fragments, compared on the parsed syntax tree rather than raw text.

USE WHEN:
- Finding copy-paste code that should be extracted into a shared function
- Checking whether a change introduced duplicated logic
- Comparing duplication between two git revisions (use ref)
- Measuring how much of a codebase is exact duplication

INTERPRETING RESULTS:
- Every member of a clone class has an identical token sequence; renamed identifiers or changed literals are NOT clones
- Whitespace, comments, and formatting differences are ignored
- Classes are maximal: a fragment nested inside a larger reported clone is not reported again
- kind "sequence" marks a run of consecutive statements rather than a single node
- member_count >= 3: the same code exists in three or more places, strong extraction candidate
- Hotspots rank files by severity, which grows with duplicated lines and with the number of classes touching the file

METRICS RETURNED:
- Per class: class_id, kind, language, node_count, member_count, members (file, start_line, end_line, lines)
- Summary: clone classes, clone instances, redundant instances, duplicated lines, biggest fragment
- Fragment size distribution in lines: mean, p50, p95, max
- Warnings for files that could not be read or parsed

Raise min_nodes to suppress small, idiomatic repetitions; lower it to see everything.`
}

func describeListCloneFiles() string {
	return `Lists the source files a detect_clones call with the same scope would analyze.

USE WHEN:
- Checking exclusions and language detection before a large run
- Verifying that a ref and path prefix select the intended files

INTERPRETING RESULTS:
- Files excluded by configuration, .gitignore, or unsupported extensions are absent
- Paths are repository-relative when ref is set, otherwise as given

METRICS RETURNED:
- files: sorted file paths
- count: number of files`
}
