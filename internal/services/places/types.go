package places

// Wire types for the Google Places API (New), places.googleapis.com/v1.

// textSearchResponse represents a places:searchText response page
type textSearchResponse struct {
	Places        []placeResult `json:"places"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

// placeResult represents a single place in API responses
type placeResult struct {
	ID                  string              `json:"id"`
	DisplayName         *localizedText      `json:"displayName,omitempty"`
	Location            *latLng             `json:"location,omitempty"`
	FormattedAddress    string              `json:"formattedAddress,omitempty"`
	AddressComponents   []addressComponent  `json:"addressComponents,omitempty"`
	Photos              []photo             `json:"photos,omitempty"`
	Reviews             []review            `json:"reviews,omitempty"`
	Rating              float64             `json:"rating,omitempty"`
	UserRatingCount     int                 `json:"userRatingCount,omitempty"`
	EditorialSummary    *localizedText      `json:"editorialSummary,omitempty"`
	PrimaryType         string              `json:"primaryType,omitempty"`
	Types               []string            `json:"types,omitempty"`
	CurrentOpeningHours *openingHours       `json:"currentOpeningHours,omitempty"`
	RegularOpeningHours *openingHours       `json:"regularOpeningHours,omitempty"`
	IntlPhoneNumber     string              `json:"internationalPhoneNumber,omitempty"`
	NatlPhoneNumber     string              `json:"nationalPhoneNumber,omitempty"`
	PriceLevel          string              `json:"priceLevel,omitempty"`
	PlusCode            *plusCode           `json:"plusCode,omitempty"`
	WebsiteURI          string              `json:"websiteUri,omitempty"`
}

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type addressComponent struct {
	LongText  string   `json:"longText,omitempty"`
	ShortText string   `json:"shortText,omitempty"`
	Types     []string `json:"types,omitempty"`
}

type photo struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx,omitempty"`
	HeightPx int    `json:"heightPx,omitempty"`
}

type review struct {
	AuthorAttribution *authorAttribution `json:"authorAttribution,omitempty"`
	Rating            float64            `json:"rating,omitempty"`
	Text              *localizedText     `json:"text,omitempty"`
	PublishTime       string             `json:"publishTime,omitempty"`
	RelativeTime      string             `json:"relativePublishTimeDescription,omitempty"`
}

type authorAttribution struct {
	DisplayName string `json:"displayName,omitempty"`
	URI         string `json:"uri,omitempty"`
	PhotoURI    string `json:"photoUri,omitempty"`
}

type openingHours struct {
	OpenNow             bool     `json:"openNow,omitempty"`
	WeekdayDescriptions []string `json:"weekdayDescriptions,omitempty"`
}

type plusCode struct {
	GlobalCode   string `json:"globalCode,omitempty"`
	CompoundCode string `json:"compoundCode,omitempty"`
}

// textSearchRequest is the places:searchText request payload
type textSearchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
	PageSize       int           `json:"pageSize,omitempty"`
	PageToken      string        `json:"pageToken,omitempty"`
	OpenNow        bool          `json:"openNow,omitempty"`
	RankPreference string        `json:"rankPreference,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// autocompleteResponse represents a queryautocomplete response
type autocompleteResponse struct {
	Predictions []prediction `json:"predictions"`
	Status      string       `json:"status"`
}

type prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description,omitempty"`
}
