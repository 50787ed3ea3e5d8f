package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"media-gallery/internal/client"
	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
)

func main() {
	baseURL := flag.String("api", client.DefaultBaseURL, "gallery API base URL")
	tags := flag.String("tags", "", "comma separated tag filter")
	pages := flag.Int("pages", 1, "number of pages to load")
	pageSize := flag.Int("limit", client.DefaultPageSize, "images per page")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	obsConfig := observability.LoadConfig()
	obsConfig.LogFormat = "console"
	logger := observability.NewLoggerWithWriter(obsConfig, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	g := client.NewGallery(
		client.NewImageAPI(*baseURL, nil),
		client.NewTagAPI(*baseURL, nil),
		client.WithPageSize(*pageSize),
		client.WithLogger(logger),
	)

	if err := browse(ctx, g, gallery.ParseTagList(*tags), *pages); err != nil {
		logger.Error(ctx).Err(err).Msg("Browsing failed")
		os.Exit(1)
	}

	render(os.Stdout, g.Snapshot())
}

// browse loads the gallery, applies the filter and scrolls until pages
// have been loaded or the catalogue is exhausted
func browse(ctx context.Context, g *client.Gallery, tags []string, pages int) error {
	if err := g.Init(ctx); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := g.ToggleTag(ctx, tag); err != nil {
			return err
		}
	}

	sentinel := client.NewSentinel(g)
	for g.Snapshot().Page < pages {
		// The terminal has no viewport; the sentinel is always in view.
		loaded, err := sentinel.Observe(ctx, 0)
		if err != nil {
			return err
		}
		if !loaded {
			break
		}
	}
	return nil
}

func render(w io.Writer, s client.State) {
	chips := client.TagChips(s.Tags, s.ActiveTags)
	labels := make([]string, len(chips))
	for i, chip := range chips {
		if chip.Active {
			labels[i] = "[" + chip.Label + "]"
		} else {
			labels[i] = chip.Label
		}
	}
	fmt.Fprintln(w, strings.Join(labels, " "))
	fmt.Fprintln(w)

	for _, img := range s.Images {
		fmt.Fprintf(w, "#%-4d %4dx%-4d %-40s %s\n",
			img.ID, img.Width, img.Height, strings.Join(img.TagNames(), ","), img.URL)
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d of %d images, page %d", len(s.Images), s.TotalImages, s.Page)
	if s.HasActiveFilters() {
		summary += fmt.Sprintf(", %d filter(s) active", s.ActiveFilterCount())
	}
	if s.HasMore {
		summary += ", more available"
	}
	fmt.Fprintln(w, summary)
}
