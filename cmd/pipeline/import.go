package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"offer-classifier/internal/app"
	"offer-classifier/internal/models"
)

// importOffers loads offers from a JSON array or an NDJSON stream. Offers
// that already exist are left untouched.
func importOffers(ctx context.Context, a *app.App, path string) error {
	if path == "" {
		return errors.New("-file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read offers: %w", err)
	}

	offers, err := decodeOffers(data)
	if err != nil {
		return err
	}
	for _, o := range offers {
		if err := a.Offers.SaveOffer(ctx, o); err != nil {
			return err
		}
	}

	total, err := a.Offers.CountOffers(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("Offers imported", zap.Int("read", len(offers)), zap.Int("stored", total))
	return nil
}

func decodeOffers(data []byte) ([]*models.Offer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var offers []*models.Offer
		if err := json.Unmarshal(trimmed, &offers); err != nil {
			return nil, fmt.Errorf("decode offers: %w", err)
		}
		return offers, nil
	}

	var offers []*models.Offer
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var o models.Offer
		err := dec.Decode(&o)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode offer %d: %w", len(offers)+1, err)
		}
		offers = append(offers, &o)
	}
	return offers, nil
}

// seedVINs adds confirmed suspicious VINs to the seed list.
func seedVINs(ctx context.Context, a *app.App, path string) error {
	if path == "" {
		return errors.New("-file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open vin list: %w", err)
	}
	defer f.Close()

	vins, err := readVINs(f)
	if err != nil {
		return err
	}

	added := 0
	for _, vin := range vins {
		ok, err := a.Labels.AddSeedVIN(ctx, vin)
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}
	a.Logger.Info("Seed VINs loaded", zap.Int("read", len(vins)), zap.Int("added", added))
	return nil
}

// readVINs takes the first column of each record. A header whose first
// cell is "vin" is skipped.
func readVINs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var vins []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read vin list: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		vin := strings.TrimSpace(rec[0])
		if vin == "" || (len(vins) == 0 && strings.EqualFold(vin, "vin")) {
			continue
		}
		vins = append(vins, vin)
	}
	return vins, nil
}
