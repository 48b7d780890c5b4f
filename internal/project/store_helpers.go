package project

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"veopm/internal/asset"
	"veopm/internal/shot"
)

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		slug       string
		title      string
		scenePlans sql.NullString
		proCalls   int
		flashCalls int
		imageCalls int
		proIn      int64
		proOut     int64
		flashIn    int64
		flashOut   int64
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&slug,
		&title,
		&scenePlans,
		&proCalls,
		&flashCalls,
		&imageCalls,
		&proIn,
		&proOut,
		&flashIn,
		&flashOut,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	proj := &Project{
		Slug:  slug,
		Title: title,
	}
	proj.Costs.ProCalls = proCalls
	proj.Costs.FlashCalls = flashCalls
	proj.Costs.ImageCalls = imageCalls
	proj.Costs.ProInputTokens = proIn
	proj.Costs.ProOutputTokens = proOut
	proj.Costs.FlashInputTokens = flashIn
	proj.Costs.FlashOutputTokens = flashOut

	if scenePlans.Valid && scenePlans.String != "" {
		if err := json.Unmarshal([]byte(scenePlans.String), &proj.ScenePlans); err != nil {
			return nil, fmt.Errorf("decode scene plans: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		proj.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		proj.UpdatedAt = updated
	}
	return proj, nil
}

func scanShot(scanner interface{ Scan(dest ...any) error }) (*shot.Shot, error) {
	var (
		id           string
		kind         string
		status       string
		pitch        string
		sceneName    sql.NullString
		veoJSON      sql.NullString
		keyframeText sql.NullString
		keyframeJSON sql.NullString
		selectedJSON sql.NullString
		adhocJSON    sql.NullString
		videoStatus  string
		videoURL     sql.NullString
		referenceURL sql.NullString
		approved     int
		useKeyframe  int
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&kind,
		&status,
		&pitch,
		&sceneName,
		&veoJSON,
		&keyframeText,
		&keyframeJSON,
		&selectedJSON,
		&adhocJSON,
		&videoStatus,
		&videoURL,
		&referenceURL,
		&approved,
		&useKeyframe,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	sh := &shot.Shot{
		ID:                     id,
		Kind:                   shot.Kind(kind),
		Status:                 shot.Status(status),
		Pitch:                  pitch,
		SceneName:              sceneName.String,
		KeyframePrompt:         keyframeText.String,
		VideoStatus:            shot.VideoStatus(videoStatus),
		VideoURL:               videoURL.String,
		ReferenceURL:           referenceURL.String,
		Approved:               approved != 0,
		UseKeyframeAsReference: useKeyframe != 0,
		ErrorMessage:           errorMessage.String,
	}

	if veoJSON.Valid && veoJSON.String != "" {
		sh.VeoJSON = &shot.VeoShotWrapper{}
		if err := json.Unmarshal([]byte(veoJSON.String), sh.VeoJSON); err != nil {
			return nil, fmt.Errorf("decode breakdown document: %w", err)
		}
	}
	if keyframeJSON.Valid && keyframeJSON.String != "" {
		sh.KeyframeImage = &asset.IngredientImage{}
		if err := json.Unmarshal([]byte(keyframeJSON.String), sh.KeyframeImage); err != nil {
			return nil, fmt.Errorf("decode keyframe image: %w", err)
		}
	}
	if selectedJSON.Valid && selectedJSON.String != "" {
		if err := json.Unmarshal([]byte(selectedJSON.String), &sh.SelectedAssetIDs); err != nil {
			return nil, fmt.Errorf("decode selected assets: %w", err)
		}
	}
	if adhocJSON.Valid && adhocJSON.String != "" {
		if err := json.Unmarshal([]byte(adhocJSON.String), &sh.AdHocReferences); err != nil {
			return nil, fmt.Errorf("decode ad-hoc references: %w", err)
		}
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		sh.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		sh.UpdatedAt = updated
	}
	return sh, nil
}

// marshalJSONColumn encodes a value for a nullable TEXT column, mapping nil
// pointers and empty slices to NULL.
func marshalJSONColumn(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
	case reflect.Slice, reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return nil, nil
		}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
