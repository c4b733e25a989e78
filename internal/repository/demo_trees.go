package repository

import (
	"time"

	"KrishHortus-App/internal/domain/geo"
	"KrishHortus-App/internal/domain/model"
)

// demoTaggedAt デモセットの固定タイムスタンプ（決定的な内容を保つため）
var demoTaggedAt = time.Date(2024, time.March, 21, 9, 0, 0, 0, time.UTC)

// DemoTrees リモートもローカルも空のときに表示される組み込みデモセット
// 内容は決定的であり、呼び出しごとに同一のレコードを返す
func DemoTrees() []model.Tree {
	entries := []struct {
		id             string
		name           string
		scientificName string
		localName      string
		category       model.TreeCategory
		coord          model.Coordinate
		uses           []string
		relevance      string
	}{
		{
			id:             "demo-neem-01",
			name:           "Neem Tree",
			scientificName: "Azadirachta indica",
			localName:      "नीम का पेड़",
			category:       model.CategoryCommunity,
			coord:          model.Coordinate{Lat: 28.613939, Lng: 77.209021},
			uses:           []string{"Natural pesticide", "Medicinal leaves", "Timber"},
			relevance:      "Drought-tolerant species valued for soil improvement",
		},
		{
			id:             "demo-banyan-01",
			name:           "Banyan Tree",
			scientificName: "Ficus benghalensis",
			localName:      "बरगद का पेड़",
			category:       model.CategoryCommunity,
			coord:          model.Coordinate{Lat: 28.612912, Lng: 77.227321},
			uses:           []string{"Shelter provider", "Sacred worship"},
			relevance:      "Keystone fig species sustaining birds and bats year round",
		},
		{
			id:             "demo-mango-01",
			name:           "Mango Tree",
			scientificName: "Mangifera indica",
			localName:      "आम का पेड़",
			category:       model.CategoryFarm,
			coord:          model.Coordinate{Lat: 28.524578, Lng: 77.185928},
			uses:           []string{"Fruit consumption", "Timber for construction"},
			relevance:      "Supports pollinators and provides canopy shade",
		},
	}

	trees := make([]model.Tree, 0, len(entries))
	for _, entry := range entries {
		// セルは座標から導出する（CellForは決定的）
		cell, err := geo.CellFor(entry.coord, geo.PlacementResolution)
		if err != nil {
			continue
		}
		trees = append(trees, model.Tree{
			ID:             entry.id,
			Name:           entry.name,
			ScientificName: entry.scientificName,
			LocalName:      entry.localName,
			Category:       entry.category,
			Location: model.TreeLocation{
				Coordinate: entry.coord,
				Cell:       cell,
			},
			Photos: map[model.PhotoSlot]string{},
			Metadata: model.TreeMetadata{
				Uses:                entry.uses,
				EcologicalRelevance: entry.relevance,
			},
			TaggedBy:      "demo",
			TaggedAt:      demoTaggedAt,
			IsAIGenerated: false,
			IsVerified:    true,
		})
	}
	return trees
}
