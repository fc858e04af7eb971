// Package arxiv parst Atom-förmige XML-Feeds, wie sie der arXiv-Export
// liefert (plus unser nicht-standardmäßiges citations-Element).
package arxiv

// entry repräsentiert einen einzelnen Feed-Eintrag. Der übergeordnete
// feed-Knoten wird nicht modelliert; der Reader dekodiert entry-weise,
// damit ein defekter Eintrag nicht das ganze Dokument verwirft.
type entry struct {
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Citations string   `xml:"citations"`
	DOI       string   `xml:"doi"`
	Journal   string   `xml:"journal"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

// link trägt das title-Attribut, über das der PDF-Link markiert ist
// (<link title="pdf" href="..."/>).
type link struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}
