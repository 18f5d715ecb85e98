// MODUL: normalize
// ZWECK: Normalisierung und Tensor-Konvertierung fuer den CLIP-Bildencoder
// INPUT: ImageInput, Normalisierungs-Parameter (mean, std)
// OUTPUT: float32-Tensor im CHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Liest direkt aus RGBA.Pix, Werte werden auf [0,1] skaliert

package vision

// Normalisierungswerte von OpenAI CLIP, Default fuer OpenCLIP
var (
	ClipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	ClipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// NormalizeRGB normalisiert ein Bild mit gegebenen mean/std Werten
// Gibt einen float32-Slice im CHW Format zurueck (Channel-First)
func NormalizeRGB(img *ImageInput, mean, std [3]float32) []float32 {
	w, h := img.Width, img.Height
	size := h * w

	result := make([]float32, size*3)
	r, g, b := result[:size], result[size:2*size], result[2*size:]

	pix := img.Image.Pix
	stride := img.Image.Stride
	idx := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			r[idx] = (float32(p[0])/255.0 - mean[0]) / std[0]
			g[idx] = (float32(p[1])/255.0 - mean[1]) / std[1]
			b[idx] = (float32(p[2])/255.0 - mean[2]) / std[2]
			idx++
		}
	}

	return result
}
