// Package convert drives the conversion of a classic story map series into
// per-entry story documents.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"smconv/misc"
	"smconv/portal"
	"smconv/series"
	"smconv/state"
	"smconv/thumbnail"
)

// itemIDRe matches a platform item id: 32 hex characters.
var itemIDRe = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")
	env.ThemeOverride = cmd.String("theme")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the conversion independently of the CLI framework: load
// the payload, parse the series, convert every entry and write the results.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	client := portal.NewClient(&env.Cfg.Portal, env.Log)

	payload, err := loadPayload(ctx, client, src)
	if err != nil {
		return err
	}
	env.Rpt.StoreData("source-payload.json", payload)

	s, err := series.Parse(payload)
	if err != nil {
		return fmt.Errorf("unable to parse classic series source (%s): %w", src, err)
	}
	log.Info("Parsed classic series",
		zap.String("title", s.Title), zap.String("layout", s.Layout), zap.Int("entries", len(s.Entries)))

	s.FillMissingExtents()
	theme := resolveTheme(s, env)

	workDir, err := prepareWorkDir(env)
	if err != nil {
		return err
	}

	defaultImage, err := thumbnail.LoadDefaultImage(
		env.Cfg.Thumbnails.DefaultImagePath, env.Cfg.Thumbnails.MaxWidth, env.Cfg.Thumbnails.MaxHeight)
	if err != nil {
		return err
	}

	gen := thumbnail.New(
		thumbnail.NewExportClient(&env.Cfg.Export, env.Rpt, env.Log),
		env.Cfg, workDir, defaultImage, env.Log)

	if itemIDRe.MatchString(src) {
		env.DefaultThumbnail = fetchStoredThumbnail(ctx, client, src, log)
	}

	results := NewConverter(client, gen, env.Cfg, theme, env.DefaultThumbnail, log).ConvertEntries(ctx, s)

	if err := writeDocuments(results, s, dst, env, log); err != nil {
		return err
	}

	var invalid []int
	for _, res := range results {
		if res.Invalid {
			invalid = append(invalid, res.Index+1)
		}
	}
	if len(invalid) > 0 {
		log.Warn("Some entries need manual attention before publishing", zap.Ints("entries", invalid))
	}

	if !env.Cfg.Thumbnails.KeepAfterConversion {
		for _, res := range results {
			if res.Thumbnail == "" {
				continue
			}
			if err := os.Remove(res.Thumbnail); err != nil {
				log.Warn("Unable to remove thumbnail file", zap.String("file", res.Thumbnail), zap.Error(err))
			}
		}
	}
	return nil
}

// loadPayload reads the series item data from a local file when one exists
// at src, otherwise treats src as a platform item id.
func loadPayload(ctx context.Context, client *portal.Client, src string) ([]byte, error) {
	if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("unable to read source file %s: %w", src, err)
		}
		return data, nil
	}

	if !itemIDRe.MatchString(src) {
		return nil, fmt.Errorf("input source was not found and does not look like an item id (%s)", src)
	}
	return client.ItemData(ctx, src)
}

// fetchStoredThumbnail pulls the series item's own thumbnail so entries
// without a renderable preview can inherit it. Best effort, a miss is fine.
func fetchStoredThumbnail(ctx context.Context, client *portal.Client, id string, log *zap.Logger) []byte {
	name, err := client.ItemThumbnailName(ctx, id)
	if err != nil || name == "" {
		log.Debug("Series item has no stored thumbnail", zap.String("id", id), zap.Error(err))
		return nil
	}
	data, err := client.ItemThumbnail(ctx, id, name)
	if err != nil {
		log.Warn("Unable to fetch stored thumbnail", zap.String("id", id), zap.Error(err))
		return nil
	}
	return data
}

// resolveTheme picks the output theme: command line override, then
// configuration, then the classic theme mapping.
func resolveTheme(s *series.Series, env *state.LocalEnv) string {
	if env.ThemeOverride != "" {
		return env.ThemeOverride
	}
	if env.Cfg.Document.Theme != "" {
		return env.Cfg.Document.Theme
	}
	return string(s.Theme)
}

func prepareWorkDir(env *state.LocalEnv) (string, error) {
	dir := env.Cfg.Thumbnails.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", misc.GetAppName()+"-thumbs-")
		if err != nil {
			return "", fmt.Errorf("unable to create thumbnail directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create thumbnail directory: %w", err)
	}
	env.WorkDir = dir
	return dir, nil
}

// writeDocuments serializes every entry's document into the destination
// directory.
func writeDocuments(results []entryResult, s *series.Series, dst string, env *state.LocalEnv, log *zap.Logger) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	for i := range results {
		res := &results[i]

		v := Values{
			Index:       res.Index + 1,
			Total:       len(results),
			Title:       res.Title,
			SeriesTitle: s.Title,
			Theme:       res.Document.Theme,
			Media:       mediaKind(s.Entries[res.Index]),
		}
		outputName := buildOutputPath(v, dst, env)

		if _, err := os.Stat(outputName); err == nil {
			if !env.Overwrite {
				return fmt.Errorf("output file already exists: %s", outputName)
			}
			log.Warn("Overwriting existing file", zap.String("file", outputName))
			if err = os.Remove(outputName); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return err
		} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}

		data, err := json.MarshalIndent(res.Document, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to serialize document for entry %d: %w", res.Index+1, err)
		}
		if err := os.WriteFile(outputName, data, 0644); err != nil {
			return fmt.Errorf("unable to write %s: %w", outputName, err)
		}

		env.Rpt.Store(fmt.Sprintf("result-%02d%s", res.Index+1, outExt), outputName)
		log.Info("Document written",
			zap.String("file", outputName), zap.String("thumbnail", res.Thumbnail), zap.Bool("invalid", res.Invalid))
	}
	return nil
}
