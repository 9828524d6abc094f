package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sdkdocs/internal/config"
)

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func sdkTool(sdk config.SDK, op string) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(sdk.ToolDescription(op)),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	}

	switch op {
	case config.OpGetSource:
		opts = append(opts, mcp.WithString("filename",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("Path of the file as returned by %s", sdk.ToolName(config.OpListFiles))),
		))
	case config.OpSearchCode:
		opts = append(opts, searchParams()...)
	case config.OpGetClass:
		opts = append(opts, mcp.WithString("class_name",
			mcp.Required(),
			mcp.Description("Class name; exact case preferred, falls back to case-insensitive"),
		))
	case config.OpFindExamples:
		opts = append(opts,
			mcp.WithString("topic",
				mcp.Required(),
				mcp.Description("Name or phrase to find usages of"),
			),
			mcp.WithNumber("max_results",
				mcp.Description("Maximum number of examples (default 10)"),
			),
		)
	}
	return mcp.NewTool(sdk.ToolName(op), opts...)
}

func searchParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for, or a regular expression when regex is true"),
		),
		mcp.WithBoolean("regex",
			mcp.Description("Treat query as an RE2 regular expression"),
		),
		mcp.WithBoolean("case_sensitive",
			mcp.Description("Match case exactly (default false)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of matching lines (default 100, at most 1000)"),
		),
		mcp.WithNumber("context_lines",
			mcp.Description("Lines of context around each match (default 1)"),
		),
	}
}

func listSDKsTool() mcp.Tool {
	return mcp.NewTool(ToolListSDKs,
		mcp.WithDescription("List the configured SDKs, their tool names and whether their source has been downloaded."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func searchAllTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Search the source of every downloaded SDK at once."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	}
	return mcp.NewTool(ToolSearchAll, append(opts, searchParams()[:4]...)...)
}

func compareTool() mcp.Tool {
	return mcp.NewTool(ToolCompare,
		mcp.WithDescription("Compare how several SDKs implement a concept: matching classes, functions and usage examples."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("concept",
			mcp.Required(),
			mcp.Description("Concept or symbol name, e.g. 'agent' or 'tool'"),
		),
		mcp.WithArray("sdk_ids",
			mcp.Description("SDK ids to compare (default all)"),
			mcp.WithStringItems(),
		),
	)
}
