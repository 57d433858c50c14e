package amazonpay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

const getOrderDetailsXML = `<?xml version="1.0"?>
<GetOrderReferenceDetailsResponse>
  <GetOrderReferenceDetailsResult>
    <OrderReferenceDetails>
      <Buyer>
        <Name>山田 太郎</Name>
        <Email>taro@example.com</Email>
      </Buyer>
      <Destination>
        <PhysicalDestination>
          <Name>山田 太郎</Name>
          <PostalCode>900-0001</PostalCode>
          <StateOrRegion>沖縄県</StateOrRegion>
          <City>那覇市</City>
          <AddressLine1>1-2-3</AddressLine1>
        </PhysicalDestination>
      </Destination>
    </OrderReferenceDetails>
  </GetOrderReferenceDetailsResult>
</GetOrderReferenceDetailsResponse>`

const authorizeXML = `<?xml version="1.0"?>
<AuthorizeResponse>
  <AuthorizeResult>
    <AuthorizationDetails>
      <AmazonAuthorizationId>A01-0000001-0000001-A000001</AmazonAuthorizationId>
      <AuthorizationStatus>
        <State>Closed</State>
      </AuthorizationStatus>
    </AuthorizationDetails>
  </AuthorizeResult>
</AuthorizeResponse>`

const errorXML = `<?xml version="1.0"?>
<ErrorResponse>
  <Error>
    <Type>Sender</Type>
    <Code>InvalidOrderReferenceId</Code>
    <Message>The OrderReferenceId S01-XXX is invalid.</Message>
  </Error>
  <RequestID>abc-123</RequestID>
</ErrorResponse>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		Endpoint:   srv.URL + "/OffAmazonPayments/2013-01-01",
		SellerID:   "SELLER",
		AccessKey:  "AKID",
		SecretKey:  "secret",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestClient_GetOrderDetails(t *testing.T) {
	var form map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(getOrderDetailsXML))
	})

	d, err := c.GetOrderDetails(context.Background(), "S01-REF-001", "atza|access")
	require.NoError(t, err)

	assert.Equal(t, "山田 太郎", d.Buyer.Name)
	assert.Equal(t, "taro@example.com", d.Buyer.Email)
	assert.Empty(t, d.Buyer.Phone, "absent elements decode to empty strings")
	assert.Equal(t, "沖縄県", d.Destination.StateOrRegion)
	assert.Empty(t, d.Destination.AddressLine2)

	assert.Equal(t, "GetOrderReferenceDetails", form["Action"][0])
	assert.Equal(t, "S01-REF-001", form["AmazonOrderReferenceId"][0])
	assert.Equal(t, "SELLER", form["SellerId"][0])
	assert.NotEmpty(t, form["Signature"][0])
	assert.Equal(t, "HmacSHA256", form["SignatureMethod"][0])
}

func TestClient_SetOrderDetails(t *testing.T) {
	var form map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`<SetOrderReferenceDetailsResponse/>`))
	})

	err := c.SetOrderDetails(context.Background(), application.SetOrderDetailsRequest{
		OrderReferenceID: "S01-REF-001",
		Amount:           10778,
		CurrencyCode:     "JPY",
		SellerNote:       `[{"sku":"item0008"}]`,
		SellerOrderID:    "o-1",
		StoreName:        "My Sweet Shop",
	})
	require.NoError(t, err)

	assert.Equal(t, "SetOrderReferenceDetails", form["Action"][0])
	assert.Equal(t, "10778", form["OrderReferenceAttributes.OrderTotal.Amount"][0])
	assert.Equal(t, "JPY", form["OrderReferenceAttributes.OrderTotal.CurrencyCode"][0])
	assert.Equal(t, "My Sweet Shop", form["OrderReferenceAttributes.SellerOrderAttributes.StoreName"][0])
}

func TestClient_Authorize(t *testing.T) {
	var form map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(authorizeXML))
	})

	res, err := c.Authorize(context.Background(), application.AuthorizeRequest{
		OrderReferenceID:         "S01-REF-001",
		AuthorizationReferenceID: "9000000001",
		Amount:                   10778,
		CurrencyCode:             "JPY",
		TransactionTimeout:       0,
	})
	require.NoError(t, err)
	assert.Equal(t, "A01-0000001-0000001-A000001", res.AuthorizationID)
	assert.Equal(t, "Closed", res.State)

	assert.Equal(t, "9000000001", form["AuthorizationReferenceId"][0])
	assert.Equal(t, "0", form["TransactionTimeout"][0], "synchronous mode")
}

func TestClient_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(errorXML))
	})

	err := c.ConfirmOrder(context.Background(), "S01-XXX")
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, http.StatusBadRequest, serviceErr.StatusCode)
	assert.Equal(t, "InvalidOrderReferenceId", serviceErr.Code)
	assert.Contains(t, serviceErr.Message, "S01-XXX")
	assert.Equal(t, "abc-123", serviceErr.RequestID)
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "a%20b", percentEncode("a b"))
	assert.Equal(t, "a~b", percentEncode("a~b"))
	assert.Equal(t, "a%2Fb", percentEncode("a/b"))
}

func TestEncodeForm_SortedKeys(t *testing.T) {
	got := encodeForm(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, "a=1&b=2&c=3", got)
}
