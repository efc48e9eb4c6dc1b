package client

import (
	"context"

	"github.com/jrsteele09/go-albis-sdk/catalog"
	"github.com/jrsteele09/go-albis-sdk/documents"
	"github.com/jrsteele09/go-albis-sdk/mapping"
	"github.com/pkg/errors"
)

func (c *Client) ChangePassword(ctx context.Context, albisNewPassword, auth0NewPassword string) (*Response, error) {
	return c.call(ctx, catalog.ChangePassword, mapping.Map{
		"auth0NewPassword": auth0NewPassword,
		"albisNewPassword": albisNewPassword,
	})
}

func (c *Client) Ping(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.Ping, nil)
}

func (c *Client) Echo(ctx context.Context, data string) (*Response, error) {
	return c.call(ctx, catalog.Echo, mapping.Map{"data": data})
}

func (c *Client) FindApplication(ctx context.Context, applicationID int64) (*Response, error) {
	return c.call(ctx, catalog.ApplicationRead, mapping.Map{"applicationId": applicationID})
}

func (c *Client) GetApplicationStatus(ctx context.Context, applicationID int64) (*Response, error) {
	return c.call(ctx, catalog.ApplicationStatus, mapping.Map{"applicationId": applicationID})
}

// SaveApplication creates an application. Standard application values fill
// every field the application leaves unset.
func (c *Client) SaveApplication(ctx context.Context, application any) (*Response, error) {
	m, err := c.withStandardValues(application)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, catalog.ApplicationCreate, m)
}

// UpdateApplication replaces an application; see SaveApplication.
func (c *Client) UpdateApplication(ctx context.Context, application any) (*Response, error) {
	m, err := c.withStandardValues(application)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, catalog.ApplicationUpdate, m)
}

// CancelApplication cancels an application; reason may be empty.
func (c *Client) CancelApplication(ctx context.Context, applicationID int64, reason string) (*Response, error) {
	params := mapping.Map{"applicationId": applicationID}
	if reason != "" {
		params["cancelationReason"] = reason
	}
	return c.call(ctx, catalog.ApplicationCancel, params)
}

func (c *Client) GetLegalForms(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.LegalForms, nil)
}

func (c *Client) GetSalutations(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.Salutations, nil)
}

func (c *Client) GetProductGroups(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.ProductGroups, nil)
}

func (c *Client) GetContractTypes(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.ContractTypes, nil)
}

func (c *Client) GetPaymentMethods(ctx context.Context) (*Response, error) {
	return c.call(ctx, catalog.PaymentMethods, nil)
}

func (c *Client) GetRates(ctx context.Context, q RateQuery) (*Response, error) {
	return c.GetRatesByMapping(ctx, q.Mapping())
}

func (c *Client) GetRatesByMapping(ctx context.Context, params mapping.Map) (*Response, error) {
	return c.call(ctx, catalog.Rate, params)
}

// GetDocuments returns the base64 PDF for an application.
func (c *Client) GetDocuments(ctx context.Context, q DocumentQuery) (string, error) {
	return c.GetDocumentsByMapping(ctx, q.Mapping())
}

func (c *Client) GetDocumentsByMapping(ctx context.Context, params mapping.Map) (string, error) {
	return c.document(ctx, catalog.Documents, params)
}

// GetContractDocuments returns the base64 contract PDF for an application.
func (c *Client) GetContractDocuments(ctx context.Context, applicationID int64) (string, error) {
	return c.document(ctx, catalog.ContractDocuments, mapping.Map{"applicationId": applicationID})
}

func (c *Client) UploadDocuments(ctx context.Context, applicationID int64, docs ...documents.Document) (*Response, error) {
	return c.call(ctx, catalog.DocumentsUpload, uploadPayload(applicationID, docs))
}

func (c *Client) UploadContractDocuments(ctx context.Context, applicationID int64, docs ...documents.Document) (*Response, error) {
	return c.call(ctx, catalog.ContractDocumentsUpload, uploadPayload(applicationID, docs))
}

func (c *Client) GetFrameApplication(ctx context.Context, params mapping.Map) (*Response, error) {
	return c.call(ctx, catalog.FrameApplication, params)
}

func (c *Client) GetFrameSubApplications(ctx context.Context, params mapping.Map) (*Response, error) {
	return c.call(ctx, catalog.FrameSubApplications, params)
}

func (c *Client) GetFrameRates(ctx context.Context, params mapping.Map) (*Response, error) {
	return c.call(ctx, catalog.FrameRates, params)
}

func (c *Client) withStandardValues(application any) (mapping.Map, error) {
	m, err := mapping.FromStruct(application)
	if err != nil {
		return nil, errors.Wrap(err, "Client.withStandardValues")
	}
	return m.Clone().MergeDefaults(c.cfg.StandardApplicationValues()), nil
}

func (c *Client) document(ctx context.Context, name string, params mapping.Map) (string, error) {
	resp, err := c.call(ctx, name, params)
	if err != nil {
		return "", err
	}
	var content string
	if err := resp.Decode(&content); err != nil {
		return "", err
	}
	return content, nil
}

func uploadPayload(applicationID int64, docs []documents.Document) mapping.Map {
	list := make([]any, len(docs))
	for i, d := range docs {
		list[i] = mapping.Map{"art": int(d.Type), "ext": d.Extension, "doc": d.Content}
	}
	return mapping.Map{"id": applicationID, "documents": list}
}
