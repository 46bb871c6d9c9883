package main

import (
	"context"
	"runtime"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/asyncx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx/fsxlocal"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search/searchpg"
	"github.com/spf13/cobra"
)

func newIngestCommand(load configLoader) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Chunk the text files under dir and add them to the search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			container, err := NewSearchContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Cleanup()

			if container.Indexer == nil {
				return search.ErrRegistry.NewWithMessage(search.ErrUnsupported, "search backend cannot index documents").
					WithDetail("backend", cfg.Search.Backend)
			}
			if pg, ok := container.Indexer.(*searchpg.Searcher); ok {
				if err := pg.EnsureSchema(ctx); err != nil {
					return err
				}
			}

			files, err := fsxlocal.NewLocalFileSystem(args[0])
			if err != nil {
				return err
			}

			docs, err := collectDocuments(ctx, files, cfg.Search.ChunkSize, workers)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				logx.Warnf("No text files found under %s", args[0])
				return nil
			}

			if err := container.Indexer.Index(ctx, docs...); err != nil {
				return err
			}
			logx.Infof("✅ Indexed %d chunks from %s into %s", len(docs), args[0], cfg.Search.Backend)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "files read in parallel")
	return cmd
}

// collectDocuments reads every text file below the reader root and splits
// it into chunks. Documents come back in walk order.
func collectDocuments(ctx context.Context, files fsx.FileReader, chunkSize, workers int) ([]search.Document, error) {
	paths, err := walk(ctx, files, "")
	if err != nil {
		return nil, err
	}

	chunked, err := asyncx.Pool(ctx, workers, paths, func(ctx context.Context, path string) ([]search.Document, error) {
		data, err := files.ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		chunks := search.Split(string(data), chunkSize)
		docs := make([]search.Document, len(chunks))
		for i, chunk := range chunks {
			docs[i] = search.Document{Source: path, Chunk: i, Content: chunk}
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}

	var docs []search.Document
	for _, d := range chunked {
		docs = append(docs, d...)
	}
	return docs, nil
}

func walk(ctx context.Context, files fsx.FileReader, dir string) ([]string, error) {
	infos, err := files.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, info := range infos {
		switch {
		case info.IsDir:
			sub, err := walk(ctx, files, info.Path)
			if err != nil {
				return nil, err
			}
			paths = append(paths, sub...)
		case fsx.IsText(info):
			paths = append(paths, info.Path)
		}
	}
	return paths, nil
}
