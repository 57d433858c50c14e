package amazonpay

import "fmt"

// ServiceError is a provider-reported failure of one of the four protocol
// calls. It is terminal for the request that triggered it; callers never
// retry it here.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("amazonpay: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

type errorResponse struct {
	Error struct {
		Type    string `xml:"Type"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
	RequestID string `xml:"RequestID"`
}

type physicalDestination struct {
	Name          string `xml:"Name"`
	Phone         string `xml:"Phone"`
	PostalCode    string `xml:"PostalCode"`
	StateOrRegion string `xml:"StateOrRegion"`
	City          string `xml:"City"`
	AddressLine1  string `xml:"AddressLine1"`
	AddressLine2  string `xml:"AddressLine2"`
	AddressLine3  string `xml:"AddressLine3"`
}

type getOrderReferenceDetailsResponse struct {
	Result struct {
		Details struct {
			Buyer struct {
				Name  string `xml:"Name"`
				Email string `xml:"Email"`
				Phone string `xml:"Phone"`
			} `xml:"Buyer"`
			Destination struct {
				PhysicalDestination physicalDestination `xml:"PhysicalDestination"`
			} `xml:"Destination"`
		} `xml:"OrderReferenceDetails"`
	} `xml:"GetOrderReferenceDetailsResult"`
}

type authorizeResponse struct {
	Result struct {
		AuthorizationDetails struct {
			AmazonAuthorizationID string `xml:"AmazonAuthorizationId"`
			AuthorizationStatus   struct {
				State string `xml:"State"`
			} `xml:"AuthorizationStatus"`
		} `xml:"AuthorizationDetails"`
	} `xml:"AuthorizeResult"`
}
