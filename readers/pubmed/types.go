// Package pubmed parst JSON-Exporte im ESummary-Stil (Array von Objekten).
package pubmed

// document repräsentiert ein einzelnes Objekt im JSON-Export.
type document struct {
	Title           string      `json:"title"`
	Authors         []docAuthor `json:"authors"`
	PubDate         string      `json:"pubdate"`
	Description     string      `json:"description"`
	DOI             string      `json:"doi"`
	ELocationID     string      `json:"elocationid"`
	FullJournalName string      `json:"fulljournalname"`
	PMCRefCount     jsonInt     `json:"pmcrefcount"`
	ArticleIDs      []articleID `json:"articleids"`
	PDFURL          string      `json:"pdf_url"`
}

type docAuthor struct {
	Name string `json:"name"`
}

// articleID trägt alternative Identifier (doi, pmid, pmc, ...).
type articleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
