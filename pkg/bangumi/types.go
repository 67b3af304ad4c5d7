package bangumi

// SubjectType is the Bangumi subject category.
type SubjectType int

const (
	SubjectBook  SubjectType = 1
	SubjectAnime SubjectType = 2
	SubjectMusic SubjectType = 3
	SubjectGame  SubjectType = 4
	SubjectReal  SubjectType = 6
)

// ParseSubjectType maps the API's string aliases to a SubjectType.
// Unknown strings return 0 (no filter).
func ParseSubjectType(s string) SubjectType {
	switch s {
	case "book":
		return SubjectBook
	case "anime":
		return SubjectAnime
	case "music":
		return SubjectMusic
	case "game":
		return SubjectGame
	case "real":
		return SubjectReal
	}
	return 0
}

// Rating is a subject's aggregate score.
type Rating struct {
	Total int     `json:"total"`
	Score float64 `json:"score"`
}

// Collection holds per-state collector counts.
type Collection struct {
	Wish    int `json:"wish"`
	Collect int `json:"collect"`
	Doing   int `json:"doing"`
	OnHold  int `json:"on_hold"`
	Dropped int `json:"dropped"`
}

// Images holds cover URLs at the available sizes.
type Images struct {
	Large  string `json:"large"`
	Common string `json:"common"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
	Grid   string `json:"grid"`
}

// Cover returns the preferred cover URL (medium, then common, then large).
func (i Images) Cover() string {
	if i.Medium != "" {
		return i.Medium
	}
	if i.Common != "" {
		return i.Common
	}
	return i.Large
}

// InfoboxItem is one key/value entry of a subject's infobox. Values may be
// strings or nested structures; Value keeps the raw decoded form.
type InfoboxItem struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Text returns the item's value when it is a plain string, else "".
func (it InfoboxItem) Text() string {
	s, _ := it.Value.(string)
	return s
}

// Subject is a Bangumi subject as returned by both the calendar and the v0
// detail endpoints; fields missing from one endpoint are zero.
type Subject struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	NameCN     string        `json:"name_cn"`
	Summary    string        `json:"summary"`
	Type       int           `json:"type"`
	AirDate    string        `json:"air_date"`
	AirWeekday int           `json:"air_weekday"`
	Date       string        `json:"date"`
	Platform   string        `json:"platform"`
	Eps        int           `json:"eps"`
	EpsCount   int           `json:"eps_count"`
	Rating     Rating        `json:"rating"`
	Collection Collection    `json:"collection"`
	Images     Images        `json:"images"`
	Infobox    []InfoboxItem `json:"infobox"`
}

// Title returns the Chinese title when present, else the original name.
func (s *Subject) Title() string {
	if s.NameCN != "" {
		return s.NameCN
	}
	return s.Name
}

// Weekday is the calendar's day descriptor. IDs follow the Bangumi
// convention where Monday is 1 and Sunday is 7.
type Weekday struct {
	EN string `json:"en"`
	CN string `json:"cn"`
	JA string `json:"ja"`
	ID int    `json:"id"`
}

// CalendarDay is one day of the weekly broadcast schedule.
type CalendarDay struct {
	Weekday Weekday   `json:"weekday"`
	Items   []Subject `json:"items"`
}

// Episode is one episode of a subject.
type Episode struct {
	ID      int     `json:"id"`
	Type    int     `json:"type"`
	Name    string  `json:"name"`
	NameCN  string  `json:"name_cn"`
	Sort    float64 `json:"sort"`
	Ep      float64 `json:"ep"`
	AirDate string  `json:"airdate"`
}

// CollectionEntry is one row of a user's collection listing.
type CollectionEntry struct {
	SubjectID   int     `json:"subject_id"`
	SubjectType int     `json:"subject_type"`
	Type        int     `json:"type"`
	Rate        int     `json:"rate"`
	Subject     Subject `json:"subject"`
}

type pagedSubjects struct {
	Data  []Subject `json:"data"`
	Total int       `json:"total"`
}

type pagedEpisodes struct {
	Data  []Episode `json:"data"`
	Total int       `json:"total"`
}

type pagedCollection struct {
	Data  []CollectionEntry `json:"data"`
	Total int               `json:"total"`
}
