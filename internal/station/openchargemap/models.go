package openchargemap

// ocmPOI is a point of interest in the Open Charge Map API response.
type ocmPOI struct {
	ID             int64           `json:"ID"`
	UUID           string          `json:"UUID"`
	AddressInfo    ocmAddressInfo  `json:"AddressInfo"`
	OperatorInfo   *ocmOperator    `json:"OperatorInfo"`
	StatusType     *ocmStatusType  `json:"StatusType"`
	Connections    []ocmConnection `json:"Connections"`
	NumberOfPoints *int            `json:"NumberOfPoints"`
	UsageCost      string          `json:"UsageCost"`
	DateLastStatus string          `json:"DateLastStatusUpdate"`
}

// ocmAddressInfo holds location details for a POI.
type ocmAddressInfo struct {
	Title     string  `json:"Title"`
	Town      string  `json:"Town"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// ocmOperator identifies the charging network.
type ocmOperator struct {
	ID    int64  `json:"ID"`
	Title string `json:"Title"`
}

// ocmStatusType reports operational status.
type ocmStatusType struct {
	IsOperational *bool `json:"IsOperational"`
}

// ocmConnection is a single connector on a POI.
type ocmConnection struct {
	PowerKW       *float64       `json:"PowerKW"`
	Quantity      *int           `json:"Quantity"`
	StatusType    *ocmStatusType `json:"StatusType"`
	CurrentTypeID *int           `json:"CurrentTypeID"`
}

// ocmErrorResponse is the error envelope the API returns on failures.
type ocmErrorResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}
