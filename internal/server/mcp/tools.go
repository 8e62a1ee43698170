package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type IdentifyArgs struct{}

type StatusArgs struct{}

type SaveSnapshotArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=Directory for the WAV file (default: working directory)"`
}

func (s *Server) handleIdentifySong(ctx context.Context, req *sdk.CallToolRequest, args IdentifyArgs) (*sdk.CallToolResult, any, error) {
	ident, err := s.service.Identify(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("identification failed: %w", err)
	}

	if !ident.Found {
		return &sdk.CallToolResult{
			Content: []sdk.Content{
				&sdk.TextContent{Text: "No match. Make sure a song is audible on the system output and try again."},
			},
		}, nil, nil
	}

	match := ident.Match
	content := []sdk.Content{
		&sdk.TextContent{Text: match.String()},
	}
	if match.Album != "" {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Album: %s (%s)", match.Album, match.ReleaseDate)})
	}
	if match.Timecode != "" {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Matched at %s in %dms", match.Timecode, ident.Elapsed.Milliseconds())})
	}
	if match.SongLink != "" {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Link: %s", match.SongLink)})
	}
	for _, v := range ident.Videos {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Video: %s %s", v.Title, v.URL)})
	}

	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleListenerStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusArgs) (*sdk.CallToolResult, any, error) {
	st := s.service.Status()

	content := []sdk.Content{
		&sdk.TextContent{Text: fmt.Sprintf("State: %s", st.State)},
		&sdk.TextContent{Text: fmt.Sprintf("Buffer: %.0f%% full, %d bytes captured", st.Capture.BufferFill*100, st.Capture.BytesWritten)},
		&sdk.TextContent{Text: fmt.Sprintf("Identifications: %d", st.Identifications)},
	}
	if st.Routed {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Input: %s (will restore %s)", st.Source, st.OriginalInput)})
	}
	if st.Capture.LastError != nil {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Last capture error: %v", st.Capture.LastError)})
	}

	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleSaveSnapshot(ctx context.Context, req *sdk.CallToolRequest, args SaveSnapshotArgs) (*sdk.CallToolResult, any, error) {
	path, err := s.service.SaveSnapshot(ctx, args.Directory)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot failed: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("Snapshot saved to %s", path)},
		},
	}, nil, nil
}
