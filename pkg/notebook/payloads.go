package notebook

// RPC ids of the remote operations this client drives.
const (
	rpcCreateNotebook      = "CCqFvf"
	rpcAddSource           = "izAoDd"
	rpcGenerateInfographic = "R7cb6c"
	rpcListArtifacts       = "gArtLc"
	rpcDeleteNotebook      = "f61S6e"
)

// artifactStatusFilter excludes artifacts the service merely suggests;
// only accepted/generated artifacts carry a usable URL.
const artifactStatusFilter = `NOT artifact.status = "ARTIFACT_STATUS_SUGGESTED"`

// The payload builders below reproduce the positional structures the web
// application sends. Nulls are placeholders for fields this client never
// sets; their positions matter and must not be collapsed.

func createNotebookPayload() []interface{} {
	return []interface{}{
		"", nil, nil,
		[]interface{}{2},
		[]interface{}{1, nil, nil, nil, nil, nil, nil, nil, nil, nil, []interface{}{1}},
	}
}

func addSourcePayload(videoURL, notebookID string) []interface{} {
	return []interface{}{
		[]interface{}{
			[]interface{}{nil, nil, nil, nil, nil, nil, nil, []interface{}{videoURL}, nil, nil, 1},
		},
		notebookID,
		[]interface{}{2},
		[]interface{}{1, nil, nil, nil, nil, nil, nil, nil, nil, nil, []interface{}{1}},
	}
}

func triggerGenerationPayload(notebookID, sourceID string) []interface{} {
	return []interface{}{
		[]interface{}{2},
		notebookID,
		[]interface{}{
			nil, nil, 7,
			[]interface{}{[]interface{}{[]interface{}{sourceID}}},
			nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
			[]interface{}{[]interface{}{nil, nil, nil, 1, 2}},
		},
	}
}

func listArtifactsPayload(notebookID string) []interface{} {
	return []interface{}{
		[]interface{}{2},
		notebookID,
		artifactStatusFilter,
	}
}

func deleteNotebookPayload(notebookID string) []interface{} {
	return []interface{}{
		[]interface{}{notebookID},
	}
}

// summaryRequest is the inner request of the streamed-generation endpoint.
// The notebook id sits at index 7; index 3 carries the generation config.
func summaryRequest(notebookID, sourceID, prompt string) []interface{} {
	return []interface{}{
		[]interface{}{[]interface{}{[]interface{}{sourceID}}},
		prompt,
		nil,
		[]interface{}{2, nil, []interface{}{1}, []interface{}{1}},
		nil, nil, nil,
		notebookID,
		1,
	}
}
