package raster

// Strip assembles a triangle strip. Triangle i uses vertices i, i+1, i+2;
// odd triangles swap their first two vertices so every triangle keeps the
// winding of the first. Fewer than three vertices produce no triangles.
func Strip(verts []Vertex) []Triangle {
	if len(verts) < 3 {
		return nil
	}
	tris := make([]Triangle, 0, len(verts)-2)
	for i := 0; i+2 < len(verts); i++ {
		if i%2 == 0 {
			tris = append(tris, Triangle{verts[i], verts[i+1], verts[i+2]})
		} else {
			tris = append(tris, Triangle{verts[i+1], verts[i], verts[i+2]})
		}
	}
	return tris
}

// List assembles independent triangles from every three vertices.
// Trailing vertices that do not form a triangle are ignored.
func List(verts []Vertex) []Triangle {
	tris := make([]Triangle, 0, len(verts)/3)
	for i := 0; i+2 < len(verts); i += 3 {
		tris = append(tris, Triangle{verts[i], verts[i+1], verts[i+2]})
	}
	return tris
}
