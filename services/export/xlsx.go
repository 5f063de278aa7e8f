// Package exportsvc writes score payloads to spreadsheets.
package exportsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/Hoomanxj/eztutor/core/school"
)

const (
	CategoriesSheet = "Categories"
	maxSheetName    = 31
)

var sheetNameReplacer = strings.NewReplacer(
	":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// WriteScores writes one sheet of category averages and one sheet per skill, in payload order.
func WriteScores(w io.Writer, title string, payload school.ScorePayload) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "eztutor"}); err != nil {
		return errors.Wrap(err, "setting document properties")
	}
	if err := f.SetSheetName(f.GetSheetName(0), CategoriesSheet); err != nil {
		return errors.Wrap(err, "naming categories sheet")
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	if err := writeSeries(f, CategoriesSheet, "Category", payload.CatScores, header); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(CategoriesSheet): true}
	for _, skill := range payload.TagScores {
		name := SheetName(skill.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "creating sheet %s", name)
		}
		if err := writeSeries(f, name, "Criteria", skill.Scores, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeSeries(f *excelize.File, sheet, labelHeader string, series school.Series, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{labelHeader, "Score"}); err != nil {
		return errors.Wrapf(err, "writing %s header", sheet)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", style); err != nil {
		return errors.Wrapf(err, "styling %s header", sheet)
	}
	for i, p := range series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{p.Label, p.Value}); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+2)
		}
	}
	return nil
}

// SheetName makes name a valid, unused sheet name and records it in used.
func SheetName(name string, used map[string]bool) string {
	base := strings.Trim(sheetNameReplacer.Replace(strings.TrimSpace(name)), "'")
	if base == "" {
		base = "Skill"
	}
	if r := []rune(base); len(r) > maxSheetName {
		base = string(r[:maxSheetName])
	}

	candidate := base
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		candidate = string(r) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
