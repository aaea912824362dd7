package fir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/docpath"
)

// Text decodes any JSON scalar as a string so hand-edited documents with a
// number where text is expected still decode.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Report is the typed view of a normalised FIR document.
type Report struct {
	Meta                     Meta         `json:"meta"`
	Section2                 []SectionRow `json:"section2"`
	Occurrence               Occurrence   `json:"occurrence"`
	TypeOfInfo               Text         `json:"typeOfInfo"`
	PlaceOfOccurrence        Place        `json:"placeOfOccurrence"`
	Complainant              Complainant  `json:"complainant"`
	Accused                  []Accused    `json:"accused"`
	PropertiesOfInterest     []Property   `json:"propertiesOfInterest"`
	DelayReason              Text         `json:"delayReason"`
	TotalValueOfProperty     json.Number  `json:"totalValueOfProperty"`
	InquestReport            Text         `json:"inquestReport"`
	FirstInformationContents Text         `json:"firstInformationContents"`
}

type Meta struct {
	District      Text        `json:"district"`
	PoliceStation Text        `json:"policeStation"`
	Year          json.Number `json:"year"`
	FIRNo         Text        `json:"firNo"`
	FIRDateTime   Text        `json:"firDateTime"`
}

type SectionRow struct {
	Sno     json.Number `json:"sno"`
	Act     Text        `json:"act"`
	Section Text        `json:"section"`
	Title   Text        `json:"title,omitempty"`
}

type Occurrence struct {
	Day              Text `json:"day"`
	DateFrom         Text `json:"dateFrom"`
	DateTo           Text `json:"dateTo"`
	TimePeriod       Text `json:"timePeriod"`
	TimeFrom         Text `json:"timeFrom"`
	TimeTo           Text `json:"timeTo"`
	InfoReceivedAtPS struct {
		Date Text `json:"date"`
		Time Text `json:"time"`
	} `json:"infoReceivedAtPS"`
	GDRef struct {
		EntryNo  Text `json:"entryNo"`
		DateTime Text `json:"dateTime"`
	} `json:"gdRef"`
}

type Place struct {
	DirectionDistanceFromPS Text `json:"directionDistanceFromPS"`
	Address                 Text `json:"address"`
	OutsidePSName           Text `json:"outsidePSName"`
	DistrictState           Text `json:"districtState"`
}

type Complainant struct {
	Name                Text `json:"name"`
	FatherOrHusbandName Text `json:"fatherOrHusbandName"`
	DOB                 Text `json:"dob"`
	Nationality         Text `json:"nationality"`
	UIDNo               Text `json:"uidNo"`
	PassportNo          Text `json:"passportNo"`
	IDDetails           Text `json:"idDetails"`
	Occupation          Text `json:"occupation"`
	CurrentAddress      Text `json:"currentAddress"`
	PermanentAddress    Text `json:"permanentAddress"`
	Phone               Text `json:"phone"`
	Mobile              Text `json:"mobile"`
	Email               Text `json:"email"`
	Age                 Text `json:"age"`
}

type Accused struct {
	Name         Text `json:"name"`
	Alias        Text `json:"alias"`
	RelativeName Text `json:"relativeName"`
	Address      Text `json:"address"`
	Description  Text `json:"description"`
}

type Property struct {
	Category    Text `json:"category"`
	Type        Text `json:"type"`
	Description Text `json:"description"`
	Value       Text `json:"value"`
}

// Decode normalises doc and returns its typed view.
func Decode(doc any) (Report, error) {
	var r Report
	data, err := json.Marshal(Normalize(doc))
	if err != nil {
		return r, fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}

// FIRDate and FIRTime split meta.firDateTime at the "T".
func (r Report) FIRDate() string {
	d, _, _ := strings.Cut(string(r.Meta.FIRDateTime), "T")
	return d
}

func (r Report) FIRTime() string {
	_, t, ok := strings.Cut(string(r.Meta.FIRDateTime), "T")
	if !ok {
		return ""
	}
	if len(t) > 5 {
		t = t[:5]
	}
	return t
}

// SectionList builds section2 rows from the classifier's predictions,
// numbering them from 1.
func SectionList(sections []classify.Section) []any {
	var rows any = []any{}
	for i, s := range sections {
		prefix := fmt.Sprintf("%d.", i)
		rows, _ = docpath.Set(rows, prefix+"sno", int64(i+1))
		rows, _ = docpath.Set(rows, prefix+"act", s.Act)
		rows, _ = docpath.Set(rows, prefix+"section", s.Code)
		if s.Title != "" {
			rows, _ = docpath.Set(rows, prefix+"title", s.Title)
		}
	}
	return rows.([]any)
}

// ApplySections replaces section2 with the classifier's predictions.
func ApplySections(doc any, sections []classify.Section) any {
	return docpath.MustParse("section2").Set(doc, SectionList(sections))
}
