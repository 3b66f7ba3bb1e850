// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"math"
	"sort"
	"strings"

	"github.com/danielhkuo/servicoja/models"
)

// matchProvider applies a listing filter to one provider. It mirrors the
// WHERE clause built by providerWhere.
func matchProvider(p models.ProviderSummary, f models.ProviderFilter) bool {
	if f.CategoryID != "" && !hasCategory(p.Categories, f.CategoryID) {
		return false
	}
	if f.City != "" && !containsFold(p.City, f.City) {
		return false
	}
	if f.MinRating != nil && p.AverageRating < *f.MinRating {
		return false
	}
	if f.MaxPrice != nil {
		rate := 0.0
		if p.HourlyRate != nil {
			rate = *p.HourlyRate
		}
		if rate > *f.MaxPrice {
			return false
		}
	}
	if f.Search != "" && !matchSearch(p, f.Search) {
		return false
	}
	return true
}

func matchSearch(p models.ProviderSummary, term string) bool {
	if containsFold(p.User.Name, term) {
		return true
	}
	if p.Description != nil && containsFold(*p.Description, term) {
		return true
	}
	for _, c := range p.Categories {
		if containsFold(c.Name, term) {
			return true
		}
	}
	return false
}

func hasCategory(categories []models.Category, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortProviders orders a listing the same way providerOrder does.
func sortProviders(list []models.ProviderSummary, by string) {
	older := func(a, b models.ProviderSummary) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}

	var less func(a, b models.ProviderSummary) bool
	switch by {
	case models.SortByPrice:
		less = func(a, b models.ProviderSummary) bool {
			switch {
			case a.HourlyRate == nil && b.HourlyRate == nil:
				return older(a, b)
			case a.HourlyRate == nil:
				return false
			case b.HourlyRate == nil:
				return true
			case *a.HourlyRate != *b.HourlyRate:
				return *a.HourlyRate < *b.HourlyRate
			}
			return older(a, b)
		}
	case models.SortByName:
		less = func(a, b models.ProviderSummary) bool {
			an, bn := strings.ToLower(a.User.Name), strings.ToLower(b.User.Name)
			if an != bn {
				return an < bn
			}
			return a.ID < b.ID
		}
	default:
		less = func(a, b models.ProviderSummary) bool {
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
			if a.TotalRatings != b.TotalRatings {
				return a.TotalRatings > b.TotalRatings
			}
			return older(a, b)
		}
	}

	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
}

// paginate returns the window [offset, offset+limit) of list.
func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

// averageRating is the mean of ratings rounded to one decimal.
func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)/float64(len(ratings))*10) / 10
}
