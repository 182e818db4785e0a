package http

import (
	"net/http"
)

// frontendHTML is the embedded Leaflet map viewer. It renders the overlays
// and markers of /api/v1/map and loads feature details on click.
const frontendHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Envmap - Dominica Environmental Map</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
          integrity="sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY=" crossorigin="">
    <style>
        :root {
            --error: #dc2626;
            --warning: #d97706;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
        }

        html, body {
            height: 100%;
            margin: 0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            color: var(--text);
        }

        #map {
            position: absolute;
            inset: 0;
        }

        .banner {
            position: absolute;
            top: 10px;
            left: 50%;
            transform: translateX(-50%);
            z-index: 1000;
            max-width: 80%;
            padding: 0.5rem 1rem;
            border-radius: 6px;
            font-size: 0.875rem;
            color: #fff;
            display: none;
        }

        .banner.error { background: var(--error); }
        .banner.notice { background: var(--warning); top: 50px; }

        #detail {
            position: absolute;
            right: 10px;
            bottom: 24px;
            z-index: 1000;
            width: 300px;
            max-height: 45%;
            overflow-y: auto;
            background: #fff;
            border: 1px solid var(--border);
            border-radius: 6px;
            padding: 0.75rem;
            font-size: 0.8125rem;
            display: none;
        }

        #detail h3 { margin: 0 0 0.25rem; font-size: 1rem; }
        #detail .layer { color: var(--text-muted); margin-bottom: 0.5rem; }
        #detail table { width: 100%; border-collapse: collapse; }
        #detail td { padding: 2px 4px; border-bottom: 1px solid var(--border); vertical-align: top; }
        #detail td:first-child { font-weight: 600; white-space: nowrap; }
        #detail .close { float: right; cursor: pointer; border: none; background: none; font-size: 1rem; }
    </style>
</head>
<body>
    <div id="map"></div>
    <div id="error" class="banner error"></div>
    <div id="notice" class="banner notice"></div>
    <div id="detail"></div>

    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
            integrity="sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo=" crossorigin=""></script>
    <script>
        (function() {
            const levelColors = {
                'Low': '#16a34a',
                'Moderate': '#eab308',
                'High': '#f97316',
                'Very High': '#dc2626'
            };

            const map = L.map('map').setView([15.4150, -61.3710], 10);
            L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
                maxZoom: 18,
                attribution: '&copy; OpenStreetMap contributors'
            }).addTo(map);

            const control = L.control.layers(null, null, { collapsed: false }).addTo(map);

            function showBanner(id, text) {
                const el = document.getElementById(id);
                el.textContent = text || '';
                el.style.display = text ? 'block' : 'none';
            }

            function escapeHtml(str) {
                if (!str) return '';
                return String(str)
                    .replace(/&/g, '&amp;')
                    .replace(/</g, '&lt;')
                    .replace(/>/g, '&gt;')
                    .replace(/"/g, '&quot;')
                    .replace(/'/g, '&#39;');
            }

            async function showDetail(layer, index) {
                const panel = document.getElementById('detail');
                try {
                    const response = await fetch('/api/v1/layers/' + encodeURIComponent(layer) + '/features/' + index);
                    const detail = await response.json();
                    if (!response.ok) {
                        throw new Error(detail.message || response.statusText);
                    }

                    let html = '<button class="close" title="Close">&times;</button>';
                    html += '<h3>' + escapeHtml(detail.title) + '</h3>';
                    html += '<div class="layer">' + escapeHtml(detail.layer) + '</div>';
                    if (detail.description) {
                        html += '<p>' + escapeHtml(detail.description) + '</p>';
                    }
                    html += '<table>';
                    for (const attr of detail.attributes || []) {
                        html += '<tr><td>' + escapeHtml(attr.key) + '</td><td>' + escapeHtml(attr.value) + '</td></tr>';
                    }
                    html += '</table>';
                    if (detail.truncated) {
                        html += '<em>More attributes not shown</em>';
                    }

                    panel.innerHTML = html;
                    panel.querySelector('.close').onclick = function() { panel.style.display = 'none'; };
                    panel.style.display = 'block';
                } catch (err) {
                    showBanner('error', 'Feature detail failed: ' + err.message);
                }
            }

            function addOverlay(overlay) {
                let index = 0;
                const layer = L.geoJSON(overlay.data, {
                    style: function() {
                        return {
                            color: overlay.style.color,
                            fillColor: overlay.style.fillColor || overlay.style.color,
                            weight: overlay.style.weight,
                            opacity: overlay.style.opacity,
                            fillOpacity: overlay.style.fillOpacity
                        };
                    },
                    pointToLayer: function(_, latlng) {
                        return L.circleMarker(latlng, { radius: 4 });
                    },
                    onEachFeature: function(_, featureLayer) {
                        const i = index++;
                        featureLayer.on('click', function() { showDetail(overlay.name, i); });
                    }
                }).addTo(map);
                control.addOverlay(layer, escapeHtml(overlay.name));
            }

            function addMarkers(title, markers) {
                const group = L.layerGroup();
                for (const m of markers || []) {
                    L.circleMarker([m.lat, m.lng], {
                        radius: 8,
                        color: '#1e293b',
                        weight: 1,
                        fillColor: levelColors[m.level] || '#3388ff',
                        fillOpacity: 0.9
                    }).bindPopup('<strong>' + escapeHtml(m.label) + '</strong><br>' + escapeHtml(m.level))
                      .addTo(group);
                }
                group.addTo(map);
                control.addOverlay(group, title);
            }

            async function load() {
                try {
                    const response = await fetch('/api/v1/map');
                    const view = await response.json();
                    if (!response.ok) {
                        throw new Error(view.message || response.statusText);
                    }

                    if (view.center) {
                        map.setView(view.center, 10);
                    }
                    for (const overlay of view.overlays || []) {
                        addOverlay(overlay);
                    }
                    addMarkers('Flood risk', view.floodMarkers);
                    addMarkers('Tourism pressure', view.tourismMarkers);

                    showBanner('error', view.error);
                    showBanner('notice', view.notice);
                } catch (err) {
                    showBanner('error', 'Map data could not be loaded: ' + err.message);
                }
            }

            load();
        })();
    </script>
</body>
</html>`

// handleFrontend serves the map viewer.
func (s *Server) handleFrontend(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(frontendHTML))
}
