package ingest

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/models"
)

// Service ingests exported saved-places archives. Rows are deduplicated per
// owner by title, resolved to place IDs concurrently, and written in a single
// batch at the end.
type Service struct {
	config      *common.Config
	logger      arbor.ILogger
	savedPlaces interfaces.SavedPlaceStorage
	places      interfaces.PlacesService
}

// savedRow is one CSV row queued for resolution
type savedRow struct {
	Title   string
	Note    string
	URL     string
	Comment string
}

func NewService(config *common.Config, savedPlaces interfaces.SavedPlaceStorage, places interfaces.PlacesService, logger arbor.ILogger) *Service {
	return &Service{
		config:      config,
		logger:      logger,
		savedPlaces: savedPlaces,
		places:      places,
	}
}

// IngestArchive processes a Takeout zip archive for the given owner. It never
// returns an error: the boolean reports success and the message is suitable
// for display to the user.
func (s *Service) IngestArchive(ctx context.Context, reader io.ReaderAt, size int64, email string) (ok bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("email", email).Msgf("Panic during archive ingest: %v", r)
			ok = false
			message = fmt.Sprintf("ingest failed: %v", r)
		}
	}()

	zipReader, err := zip.NewReader(reader, size)
	if err != nil {
		return false, fmt.Sprintf("could not open archive: %v", err)
	}

	prefix := s.config.Ingest.ArchivePrefix
	var rows []savedRow
	files := 0

	for _, file := range zipReader.File {
		if !strings.HasPrefix(file.Name, prefix) || !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file.Name).Msg("Skipping unreadable archive entry")
			continue
		}

		fileRows, err := parseRows(rc)
		rc.Close()
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file.Name).Msg("Skipping malformed CSV")
			continue
		}

		rows = append(rows, fileRows...)
		files++
	}

	if files == 0 {
		return false, fmt.Sprintf("no saved-places files found under %s", prefix)
	}

	saved, duplicates := s.resolveAndSave(ctx, email, rows)
	return true, fmt.Sprintf("processed %d files: saved %d places, skipped %d duplicates", files, saved, duplicates)
}

// IngestFolder processes every CSV file under a local directory for the
// given owner. Same contract as IngestArchive.
func (s *Service) IngestFolder(ctx context.Context, path, email string) (ok bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("email", email).Msgf("Panic during folder ingest: %v", r)
			ok = false
			message = fmt.Sprintf("ingest failed: %v", r)
		}
	}()

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false, fmt.Sprintf("folder not found: %s", path)
	}

	var rows []savedRow
	files := 0

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", p).Msg("Skipping unreadable file")
			return nil
		}
		defer f.Close()

		fileRows, err := parseRows(f)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", p).Msg("Skipping malformed CSV")
			return nil
		}

		rows = append(rows, fileRows...)
		files++
		return nil
	})
	if err != nil {
		return false, fmt.Sprintf("failed to scan folder: %v", err)
	}

	if files == 0 {
		return false, fmt.Sprintf("no CSV files found in %s", path)
	}

	saved, duplicates := s.resolveAndSave(ctx, email, rows)
	return true, fmt.Sprintf("processed %d files: saved %d places, skipped %d duplicates", files, saved, duplicates)
}

// parseRows reads a saved-places CSV. The exporter writes Title, Note, URL
// and Comment columns; rows without a title are dropped.
func parseRows(r io.Reader) ([]savedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, found := cols["title"]; !found {
		return nil, fmt.Errorf("CSV has no title column")
	}

	field := func(record []string, name string) string {
		idx, found := cols[name]
		if !found || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []savedRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := savedRow{
			Title:   field(record, "title"),
			Note:    field(record, "note"),
			URL:     field(record, "url"),
			Comment: field(record, "comment"),
		}
		if row.Title == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolveAndSave deduplicates rows against existing records and within the
// batch, resolves the survivors concurrently, then saves them in one batch.
func (s *Service) resolveAndSave(ctx context.Context, email string, rows []savedRow) (saved, duplicates int) {
	seen := make(map[string]bool, len(rows))
	var fresh []savedRow

	for _, row := range rows {
		key := strings.ToLower(row.Title)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		existing, err := s.savedPlaces.GetByOwnerTitle(ctx, email, row.Title)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().Err(err).Str("title", row.Title).Msg("Duplicate check failed, keeping row")
		}
		if existing != nil {
			duplicates++
			continue
		}
		fresh = append(fresh, row)
	}

	if len(fresh) == 0 {
		return 0, duplicates
	}

	workerCount := int(math.Ceil(s.config.Ingest.WorkerFactor * float64(runtime.NumCPU())))
	if workerCount < 1 {
		workerCount = 1
	}

	jobs := make(chan savedRow)
	var mu sync.Mutex
	resolved := make([]*models.SavedPlace, 0, len(fresh))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Msgf("Panic in resolve worker: %v", r)
				}
			}()

			for row := range jobs {
				place := s.resolveRow(ctx, email, row)
				mu.Lock()
				resolved = append(resolved, place)
				mu.Unlock()
			}
		}()
	}

	for _, row := range fresh {
		jobs <- row
	}
	close(jobs)
	wg.Wait()

	if err := s.savedPlaces.SavePlaces(ctx, resolved); err != nil {
		s.logger.Error().Err(err).Int("count", len(resolved)).Msg("Failed to save resolved places")
		return 0, duplicates
	}

	s.logger.Info().
		Str("email", email).
		Int("saved", len(resolved)).
		Int("duplicates", duplicates).
		Int("workers", workerCount).
		Msg("Ingest batch complete")
	return len(resolved), duplicates
}

// resolveRow builds the stored record for one row. Resolution failures are
// tolerated: the row is still saved, just without place enrichment.
func (s *Service) resolveRow(ctx context.Context, email string, row savedRow) *models.SavedPlace {
	place := &models.SavedPlace{
		Email:     email,
		Title:     row.Title,
		URL:       row.URL,
		Note:      row.Note,
		Comment:   row.Comment,
		Timestamp: time.Now(),
	}

	placeID := s.places.ResolvePlaceIDFromURL(ctx, row.URL)
	if placeID == "" {
		return place
	}
	place.PlaceID = placeID

	detail := s.places.FetchPlaceDetail(ctx, placeID, "")
	if detail == nil {
		return place
	}

	place.Types = detail.Types
	place.Description = detail.EditorialSummary
	if detail.Location.Latitude != 0 || detail.Location.Longitude != 0 {
		place.Location = common.FormatLatLng(detail.Location.Latitude, detail.Location.Longitude)
	}
	return place
}
