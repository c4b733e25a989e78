package model

// IdentificationResult AI画像識別の結果
type IdentificationResult struct {
	CommonName          string        `json:"commonName"`
	ScientificName      string        `json:"scientificName"`
	LocalName           string        `json:"localName,omitempty"`
	Confidence          float64       `json:"confidence"`
	Taxonomy            *TreeTaxonomy `json:"taxonomy,omitempty"`
	Uses                []string      `json:"uses,omitempty"`
	MedicinalBenefits   []string      `json:"medicinalBenefits,omitempty"`
	EcologicalRelevance string        `json:"ecologicalRelevance,omitempty"`
}
