// Package model defines the values exchanged during one prediction round trip:
// the FormInput collected from the prediction form, the PredictionResult and
// ErrorPayload returned by the prediction endpoint, and the FormModel that
// front-ends use to present the form. Every value is built per submission and
// discarded once the result container has been rendered.
package model
