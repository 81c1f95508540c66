package comprobante

// Upload is one raw voucher handed to a batch, named after its file or
// access key.
type Upload struct {
	Nombre    string
	Contenido []byte
}

// FailedDocument reports a voucher that produced no record.
type FailedDocument struct {
	Archivo            string   `json:"archivo"`
	Errors             []string `json:"errors"`
	FechaProcesamiento string   `json:"fecha_procesamiento"`
	HoraProcesamiento  string   `json:"hora_procesamiento"`
}
